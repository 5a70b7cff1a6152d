package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/truthscope/internal/adapters/driven/ai"
	"github.com/custodia-labs/truthscope/internal/adapters/driven/auth"
	"github.com/custodia-labs/truthscope/internal/adapters/driven/dkg"
	"github.com/custodia-labs/truthscope/internal/adapters/driven/knowledge"
	"github.com/custodia-labs/truthscope/internal/adapters/driven/memory"
	"github.com/custodia-labs/truthscope/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/truthscope/internal/adapters/driven/redis"
	"github.com/custodia-labs/truthscope/internal/config"
	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
	"github.com/custodia-labs/truthscope/internal/core/services"
	"github.com/custodia-labs/truthscope/internal/metrics"
	"github.com/custodia-labs/truthscope/internal/runtime"
	"github.com/custodia-labs/truthscope/internal/worker"
)

// application holds everything serve and compare share
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	jobs     driven.JobStore
	services *runtime.Services
	worker   *worker.Worker
	compare  *services.ComparisonService
	metrics  *metrics.Recorder   // nil when disabled
	tokens   driven.TokenService // nil when auth is off

	closers []func() error
}

// buildApplication connects the configured backends and assembles the pipeline.
// The worker is created but not started.
func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *application, err error) {
	app = &application{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	// ===== Redis (only when a backend needs it) =====
	var redisClient *redis.Client
	if cfg.Jobs.Backend == config.BackendRedis || cfg.Cache.Backend == config.BackendRedis {
		logger.Info("connecting to redis")
		redisClient, err = redisadapter.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, redisClient.Close)
	}

	// ===== Job store =====
	switch cfg.Jobs.Backend {
	case config.BackendRedis:
		app.jobs = redisadapter.NewJobStore(redisClient, cfg.Jobs.Retention)
	case config.BackendPostgres:
		logger.Info("connecting to postgres")
		dbConfig := postgres.DefaultConfig(cfg.Database.URL)
		dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
		dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
		dbConfig.ConnectTimeout = cfg.Database.ConnectTimeout
		dbConfig.Logger = logger
		db, err := postgres.Connect(ctx, dbConfig)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			return nil, err
		}
		app.jobs = postgres.NewJobStore(db)
	default:
		app.jobs = memory.NewJobStore(cfg.Jobs.Retention)
	}

	// ===== Shared embedding cache =====
	var vectors driven.VectorCache
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		vectors = memory.NewVectorCache(memory.VectorCacheConfig{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		})
	case config.BackendRedis:
		vectors = redisadapter.NewVectorCache(redisClient, cfg.Cache.TTL)
	}

	// ===== AI capabilities =====
	runtimeConfig := domain.NewRuntimeConfig(cfg.Jobs.Backend)
	app.services = runtime.NewServices(runtimeConfig)
	app.closers = append(app.closers, app.services.Close)

	factory := ai.NewFactory()
	settings := cfg.AISettings()
	extraction, err := factory.CreateExtractionService(&settings.Extraction)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction service: %w", err)
	}
	embedding, err := factory.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}
	if cfg.AI.VerifyOnStart {
		if err := app.services.ValidateAndSetExtraction(ctx, extraction); err != nil {
			logger.Warn("extraction provider unreachable", "provider", settings.Extraction.Provider, "error", err)
			extraction = nil
		}
		if err := app.services.ValidateAndSetEmbedding(ctx, embedding); err != nil {
			logger.Warn("embedding provider unreachable", "provider", settings.Embedding.Provider, "error", err)
		}
	} else {
		app.services.SetExtractionService(extraction)
		app.services.SetEmbeddingService(embedding)
	}

	logger.Info("runtime config",
		"job_backend", runtimeConfig.JobBackend,
		"cache_backend", cfg.Cache.Backend,
		"extraction", runtimeConfig.ExtractionAvailable(),
		"embedding", runtimeConfig.EmbeddingAvailable(),
	)
	if !runtimeConfig.CanCompare() {
		logger.Warn("comparisons will be refused until both capabilities are configured",
			"extraction_provider", settings.Extraction.Provider,
			"embedding_provider", settings.Embedding.Provider,
		)
	}

	// ===== Metrics =====
	var recorder services.MetricsRecorder
	if cfg.Metrics.Enabled {
		app.metrics = metrics.NewRecorder()
		recorder = app.metrics
	}

	// ===== Matcher =====
	var checker driven.ContradictionChecker
	if cfg.Match.CheckContradictions {
		if c, ok := extraction.(driven.ContradictionChecker); ok {
			checker = c
		} else {
			logger.Warn("contradiction checks requested but the extraction provider cannot perform them")
		}
	}
	matcher := services.NewSemanticMatcher(services.SemanticMatcherConfig{
		Policy:  cfg.MatchPolicy(),
		Checker: checker,
		Metrics: recorder,
		Logger:  logger,
	})

	// ===== Knowledge graph publishing (optional) =====
	var publisher driven.AssetPublisher
	if p := dkg.NewPublisher(dkg.PublisherConfig{
		Endpoint: cfg.Publisher.Endpoint,
		Timeout:  cfg.Publisher.Timeout,
		Epochs:   cfg.Publisher.Epochs,
		MaxTries: cfg.Publisher.MaxTries,
		Logger:   logger,
	}); p != nil {
		publisher = p
		logger.Info("publishing assets", "endpoint", cfg.Publisher.Endpoint)
	}

	// ===== Runner and orchestrator =====
	app.worker = worker.NewWorker(worker.WorkerConfig{
		Logger:      logger,
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
		TaskTimeout: cfg.Worker.JobTimeout,
	})

	app.compare = services.NewComparisonService(services.ComparisonServiceConfig{
		JobStore:           app.jobs,
		Services:           app.services,
		Runner:             app.worker,
		Matcher:            matcher,
		Generator:          knowledge.NewGenerator(),
		Publisher:          publisher,
		VectorCache:        vectors,
		Metrics:            recorder,
		Logger:             logger,
		Chunks:             cfg.ChunkSettings(),
		ExtractConcurrency: cfg.Chunks.Concurrency,
	})

	if cfg.Server.JWTSecret != "" {
		app.tokens = auth.NewAdapter(cfg.Server.JWTSecret)
	}

	return app, nil
}

// Close releases connections in reverse order of creation
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
