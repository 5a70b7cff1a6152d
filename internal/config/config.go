// Package config loads truthscope settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// EnvPrefix namespaces every environment override, e.g. TRUTHSCOPE_JOBS_BACKEND.
const EnvPrefix = "TRUTHSCOPE"

// Backend names
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Jobs      JobsConfig      `mapstructure:"jobs" yaml:"jobs"`
	Redis     RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Worker    WorkerConfig    `mapstructure:"worker" yaml:"worker"`
	AI        AIConfig        `mapstructure:"ai" yaml:"ai"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Chunks    ChunksConfig    `mapstructure:"chunks" yaml:"chunks"`
	Match     MatchConfig     `mapstructure:"match" yaml:"match"`
	Publisher PublisherConfig `mapstructure:"publisher" yaml:"publisher"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// JWTSecret enables bearer auth on /api/v1 when set
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

type JobsConfig struct {
	Backend   string        `mapstructure:"backend" yaml:"backend"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
}

type RedisConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	MaxOpenConns   int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	QueueSize   int           `mapstructure:"queue_size" yaml:"queue_size"`
	JobTimeout  time.Duration `mapstructure:"job_timeout" yaml:"job_timeout"`
}

type AIConfig struct {
	Extraction ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding" yaml:"embedding"`
	// VerifyOnStart pings both providers at startup and leaves a
	// capability unset when its provider is unreachable.
	VerifyOnStart bool `mapstructure:"verify_on_start" yaml:"verify_on_start"`
}

type ExtractionConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider" yaml:"provider"`
	Model      string        `mapstructure:"model" yaml:"model"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Dimensions int           `mapstructure:"dimensions" yaml:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig selects the embedding cache shared across runs
type CacheConfig struct {
	Backend    string        `mapstructure:"backend" yaml:"backend"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
}

type ChunksConfig struct {
	TargetLength int `mapstructure:"target_length" yaml:"target_length"`
	MaxChunks    int `mapstructure:"max_chunks" yaml:"max_chunks"`
	Concurrency  int `mapstructure:"concurrency" yaml:"concurrency"`
}

type MatchConfig struct {
	SameFact         float64 `mapstructure:"same_fact" yaml:"same_fact"`
	Reworded         float64 `mapstructure:"reworded" yaml:"reworded"`
	Unsupported      float64 `mapstructure:"unsupported" yaml:"unsupported"`
	MaxDiscrepancies int     `mapstructure:"max_discrepancies" yaml:"max_discrepancies"`
	// CheckContradictions sends reworded pairs to the extraction model
	CheckContradictions bool `mapstructure:"check_contradictions" yaml:"check_contradictions"`
}

// PublisherConfig points at the knowledge graph sidecar; empty endpoint disables publishing
type PublisherConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Epochs   int           `mapstructure:"epochs" yaml:"epochs"`
	MaxTries uint          `mapstructure:"max_tries" yaml:"max_tries"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// aliases maps config keys to the unprefixed variables operators already use.
var aliases = map[string][]string{
	"server.port":                {"PORT"},
	"server.jwt_secret":          {"JWT_SECRET"},
	"redis.url":                  {"REDIS_URL"},
	"database.url":               {"DATABASE_URL"},
	"worker.concurrency":         {"WORKER_CONCURRENCY"},
	"ai.extraction.api_key":      {"OPENAI_API_KEY"},
	"ai.embedding.api_key":       {"OPENAI_API_KEY"},
	"ai.extraction.base_url":     {"OPENAI_BASE_URL"},
	"ai.embedding.base_url":      {"OPENAI_BASE_URL"},
	"publisher.endpoint":         {"DKG_ENDPOINT"},
	"ai.extraction.provider":     {"AI_PROVIDER"},
	"ai.embedding.provider":      {"AI_PROVIDER"},
	"ai.extraction.model":        {"LLM_MODEL"},
	"ai.embedding.model":         {"EMBEDDING_MODEL"},
	"match.check_contradictions": {"CHECK_CONTRADICTIONS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("jobs.backend", BackendMemory)
	v.SetDefault("jobs.retention", 24*time.Hour)

	v.SetDefault("redis.url", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.connect_timeout", 30*time.Second)

	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("worker.job_timeout", 10*time.Minute)

	v.SetDefault("ai.extraction.provider", string(domain.AIProviderOpenAI))
	v.SetDefault("ai.extraction.model", "")
	v.SetDefault("ai.extraction.api_key", "")
	v.SetDefault("ai.extraction.base_url", "")
	v.SetDefault("ai.extraction.timeout", 60*time.Second)
	v.SetDefault("ai.extraction.requests_per_second", 0.0)
	v.SetDefault("ai.extraction.burst", 1)

	v.SetDefault("ai.embedding.provider", string(domain.AIProviderOpenAI))
	v.SetDefault("ai.embedding.model", "")
	v.SetDefault("ai.embedding.api_key", "")
	v.SetDefault("ai.embedding.base_url", "")
	v.SetDefault("ai.embedding.dimensions", 0)
	v.SetDefault("ai.embedding.timeout", 60*time.Second)
	v.SetDefault("ai.verify_on_start", false)

	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.max_entries", 10000)

	chunks := domain.DefaultChunkSettings()
	v.SetDefault("chunks.target_length", chunks.TargetLength)
	v.SetDefault("chunks.max_chunks", chunks.MaxChunks)
	v.SetDefault("chunks.concurrency", 4)

	policy := domain.DefaultMatchPolicy()
	v.SetDefault("match.same_fact", policy.SameFact)
	v.SetDefault("match.reworded", policy.Reworded)
	v.SetDefault("match.unsupported", policy.Unsupported)
	v.SetDefault("match.max_discrepancies", policy.MaxDiscrepancies)
	v.SetDefault("match.check_contradictions", false)

	v.SetDefault("publisher.endpoint", "")
	v.SetDefault("publisher.timeout", 30*time.Second)
	v.SetDefault("publisher.epochs", 5)
	v.SetDefault("publisher.max_tries", 4)

	v.SetDefault("metrics.enabled", true)
}

// Load reads the configuration. An explicit path must exist; without one,
// truthscope.yaml is looked up in the working directory and ~/.truthscope.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range aliases {
		bind := append([]string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(bind...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("truthscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".truthscope"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Jobs.Backend = strings.ToLower(strings.TrimSpace(c.Jobs.Backend))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.AI.Extraction.Provider = strings.ToLower(strings.TrimSpace(c.AI.Extraction.Provider))
	c.AI.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.AI.Embedding.Provider))
}

// Validate checks backends, providers and thresholds.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Jobs.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("jobs.backend redis requires redis.url"))
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("jobs.backend postgres requires database.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown jobs.backend %q", c.Jobs.Backend))
	}

	switch c.Cache.Backend {
	case BackendNone, BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("cache.backend redis requires redis.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}

	ai := c.AISettings()
	if err := ai.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ai: %w", err))
	}
	if err := c.MatchPolicy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("match: %w", err))
	}
	if c.Chunks.TargetLength <= 0 || c.Chunks.MaxChunks <= 0 {
		errs = append(errs, errors.New("chunks.target_length and chunks.max_chunks must be positive"))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, errors.New("worker.concurrency must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// AISettings converts the capability sections into domain settings.
func (c *Config) AISettings() domain.AISettings {
	return domain.AISettings{
		Extraction: domain.ExtractionSettings{
			Provider:          domain.AIProvider(c.AI.Extraction.Provider),
			Model:             c.AI.Extraction.Model,
			APIKey:            c.AI.Extraction.APIKey,
			BaseURL:           c.AI.Extraction.BaseURL,
			Timeout:           c.AI.Extraction.Timeout,
			RequestsPerSecond: c.AI.Extraction.RequestsPerSecond,
			Burst:             c.AI.Extraction.Burst,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProvider(c.AI.Embedding.Provider),
			Model:      c.AI.Embedding.Model,
			APIKey:     c.AI.Embedding.APIKey,
			BaseURL:    c.AI.Embedding.BaseURL,
			Dimensions: c.AI.Embedding.Dimensions,
			Timeout:    c.AI.Embedding.Timeout,
		},
	}
}

func (c *Config) ChunkSettings() domain.ChunkSettings {
	return domain.ChunkSettings{
		TargetLength: c.Chunks.TargetLength,
		MaxChunks:    c.Chunks.MaxChunks,
	}
}

func (c *Config) MatchPolicy() domain.MatchPolicy {
	return domain.MatchPolicy{
		SameFact:         c.Match.SameFact,
		Reworded:         c.Match.Reworded,
		Unsupported:      c.Match.Unsupported,
		MaxDiscrepancies: c.Match.MaxDiscrepancies,
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Server.JWTSecret = mask(c.Server.JWTSecret)
	c.AI.Extraction.APIKey = mask(c.AI.Extraction.APIKey)
	c.AI.Embedding.APIKey = mask(c.AI.Embedding.APIKey)
	c.Redis.URL = redactURL(c.Redis.URL)
	c.Database.URL = redactURL(c.Database.URL)
	return c
}

// redactURL hides the password of a connection URL
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	userinfo := raw[scheme+3 : at]
	if colon := strings.IndexByte(userinfo, ':'); colon >= 0 {
		userinfo = userinfo[:colon] + ":********"
	}
	return raw[:scheme+3] + userinfo + raw[at:]
}

// NewLogger builds the process logger from the log section.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
