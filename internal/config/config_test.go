package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// isolate keeps the developer's environment and home config out of a test
func isolate(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	for _, names := range aliases {
		for _, name := range names {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Jobs.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.Retention)
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, "openai", cfg.AI.Extraction.Provider)
	assert.Equal(t, domain.DefaultChunkSettings(), cfg.ChunkSettings())
	assert.Equal(t, domain.DefaultMatchPolicy(), cfg.MatchPolicy())
	assert.False(t, cfg.Match.CheckContradictions)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Database.ConnectTimeout)
	assert.False(t, cfg.AI.VerifyOnStart)
	assert.NoError(t, cfg.Validate())

	// no key configured: capabilities report missing credentials downstream
	ai := cfg.AISettings()
	assert.False(t, ai.Extraction.IsConfigured())
	assert.False(t, ai.Embedding.IsConfigured())
}

func TestLoad_YAMLFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "truthscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  allowed_origins: ["https://app.example.com"]
jobs:
  backend: Redis
  retention: 2h
redis:
  url: redis://localhost:6379/0
ai:
  extraction:
    provider: local
  embedding:
    provider: local
    dimensions: 64
match:
  same_fact: 0.9
  reworded: 0.8
  unsupported: 0.7
  max_discrepancies: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendRedis, cfg.Jobs.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Jobs.Retention)
	assert.Equal(t, 64, cfg.AI.Embedding.Dimensions)
	assert.Equal(t, 5, cfg.MatchPolicy().MaxDiscrepancies)
	assert.NoError(t, cfg.Validate())

	ai := cfg.AISettings()
	assert.True(t, ai.Extraction.IsConfigured())
	assert.True(t, ai.Embedding.IsConfigured())
}

func TestLoad_FileInWorkingDirectory(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("truthscope.yaml", []byte("worker:\n  concurrency: 7\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Worker.Concurrency)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TRUTHSCOPE_JOBS_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:secret@db:5432/truthscope")
	t.Setenv("PORT", "8181")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRUTHSCOPE_WORKER_JOB_TIMEOUT", "90s")
	t.Setenv("TRUTHSCOPE_MATCH_SAME_FACT", "0.95")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Jobs.Backend)
	assert.Equal(t, "postgres://u:secret@db:5432/truthscope", cfg.Database.URL)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.AI.Extraction.APIKey)
	assert.Equal(t, "sk-test", cfg.AI.Embedding.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Worker.JobTimeout)
	assert.InDelta(t, 0.95, cfg.Match.SameFact, 1e-9)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PrefixedBeatsAlias(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8181")
	t.Setenv("TRUTHSCOPE_SERVER_PORT", "8282")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8282, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"unknown job backend", func(c *Config) { c.Jobs.Backend = "etcd" }, "unknown jobs.backend"},
		{"redis jobs without url", func(c *Config) { c.Jobs.Backend = BackendRedis }, "requires redis.url"},
		{"postgres without url", func(c *Config) { c.Jobs.Backend = BackendPostgres }, "requires database.url"},
		{"redis cache without url", func(c *Config) { c.Cache.Backend = BackendRedis }, "requires redis.url"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "disk" }, "unknown cache.backend"},
		{"bad provider", func(c *Config) { c.AI.Extraction.Provider = "anthropic" }, "invalid provider"},
		{"inverted thresholds", func(c *Config) { c.Match.Reworded = 0.95 }, "reworded threshold"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no workers", func(c *Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{}
	cfg.Server.JWTSecret = "jwt"
	cfg.AI.Extraction.APIKey = "sk-1"
	cfg.Database.URL = "postgres://user:hunter2@db:5432/truthscope?sslmode=disable"
	cfg.Redis.URL = "redis://localhost:6379/0"

	red := cfg.Redacted()

	assert.Equal(t, "********", red.Server.JWTSecret)
	assert.Equal(t, "********", red.AI.Extraction.APIKey)
	assert.Equal(t, "", red.AI.Embedding.APIKey)
	assert.Equal(t, "postgres://user:********@db:5432/truthscope?sslmode=disable", red.Database.URL)
	assert.Equal(t, "redis://localhost:6379/0", red.Redis.URL)
	// the original is untouched
	assert.Equal(t, "jwt", cfg.Server.JWTSecret)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "job_id", "j1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"job_id":"j1"`)

	buf.Reset()
	LogConfig{Level: "bogus"}.NewLogger(&buf).Debug("dropped")
	assert.Empty(t, buf.String())
}
