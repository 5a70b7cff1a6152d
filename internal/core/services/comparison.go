package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
	"github.com/custodia-labs/truthscope/internal/core/ports/driving"
	"github.com/custodia-labs/truthscope/internal/runtime"
	"github.com/custodia-labs/truthscope/internal/worker"
)

// Ensure ComparisonService implements the driving ports
var (
	_ driving.ComparisonService = (*ComparisonService)(nil)
	_ driving.AssetService      = (*ComparisonService)(nil)
)

// finalPatchTimeout bounds the terminal job write, which runs even after
// the job context was cancelled.
const finalPatchTimeout = 10 * time.Second

// TaskRunner dispatches background work and returns its future.
type TaskRunner interface {
	Submit(id string, fn worker.Func) (*worker.Task, error)
}

// ComparisonService runs comparisons as background jobs.
// Pipeline per job:
//  1. Extract claims from text A and text B concurrently
//  2. Match the claim sets into discrepancies
//  3. Generate knowledge assets
//  4. Publish each asset, tolerating individual failures
//  5. Patch the job to completed (or failed on any error)
type ComparisonService struct {
	jobs      driven.JobStore
	services  *runtime.Services
	runner    TaskRunner
	matcher   *SemanticMatcher
	generator driven.AssetGenerator
	publisher driven.AssetPublisher
	vectors   driven.VectorCache
	metrics   MetricsRecorder
	logger    *slog.Logger

	chunks             domain.ChunkSettings
	extractConcurrency int
	pollInterval       time.Duration

	mu    sync.Mutex
	tasks map[string]*worker.Task
}

// ComparisonServiceConfig holds dependencies for ComparisonService.
type ComparisonServiceConfig struct {
	JobStore driven.JobStore
	Services *runtime.Services
	Runner   TaskRunner
	Matcher  *SemanticMatcher

	// Optional collaborators
	Generator   driven.AssetGenerator
	Publisher   driven.AssetPublisher
	VectorCache driven.VectorCache
	Metrics     MetricsRecorder
	Logger      *slog.Logger

	Chunks             domain.ChunkSettings
	ExtractConcurrency int           // Chunks extracted in parallel per document
	PollInterval       time.Duration // Used by Await for jobs started elsewhere
}

// NewComparisonService creates a new comparison service.
func NewComparisonService(cfg ComparisonServiceConfig) *ComparisonService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = NewSemanticMatcher(SemanticMatcherConfig{Metrics: metrics, Logger: logger})
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}

	return &ComparisonService{
		jobs:               cfg.JobStore,
		services:           cfg.Services,
		runner:             cfg.Runner,
		matcher:            matcher,
		generator:          cfg.Generator,
		publisher:          cfg.Publisher,
		vectors:            cfg.VectorCache,
		metrics:            metrics,
		logger:             logger,
		chunks:             cfg.Chunks,
		extractConcurrency: cfg.ExtractConcurrency,
		pollInterval:       pollInterval,
		tasks:              make(map[string]*worker.Task),
	}
}

// Submit creates a processing job and starts the pipeline in the background.
func (s *ComparisonService) Submit(ctx context.Context, req driving.CompareRequest) (string, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return "", fmt.Errorf("%w: topic is required", domain.ErrInvalidInput)
	}
	if err := s.services.Ready(); err != nil {
		return "", err
	}
	extractor := s.services.ExtractionService()
	embedder := s.services.EmbeddingService()

	job := domain.NewJob(req.Topic, strings.TrimSpace(req.SourceA), strings.TrimSpace(req.SourceB))
	if err := job.MarkProcessing(); err != nil {
		return "", err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	s.metrics.JobSubmitted()

	logger := s.logger.With("job_id", job.ID)
	logger.Info("comparison submitted",
		"topic", job.Topic,
		"source_a", job.SourceA,
		"source_b", job.SourceB,
	)

	snapshot := *job
	task, err := s.runner.Submit(job.ID, func(taskCtx context.Context) error {
		return s.run(taskCtx, &snapshot, req, extractor, embedder)
	})
	if err != nil {
		s.patchFailed(ctx, job.ID, fmt.Errorf("failed to dispatch job: %w", err))
		s.metrics.JobFinished(domain.JobStatusFailed, 0)
		return "", fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	s.track(task)
	go s.settleUnstarted(job.ID, task)

	return job.ID, nil
}

// Poll returns the current job snapshot.
func (s *ComparisonService) Poll(ctx context.Context, jobID string) (*domain.Job, error) {
	if jobID == "" {
		return nil, domain.ErrNotFound
	}
	return s.jobs.Get(ctx, jobID)
}

// Task returns the future of a job dispatched by this process, if still tracked.
func (s *ComparisonService) Task(jobID string) (*worker.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[jobID]
	return task, ok
}

// Await blocks until the job is terminal and returns its final snapshot.
func (s *ComparisonService) Await(ctx context.Context, jobID string) (*domain.Job, error) {
	if task, ok := s.Task(jobID); ok {
		select {
		case <-task.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		job, err := s.Poll(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetAsset reads a published knowledge asset.
func (s *ComparisonService) GetAsset(ctx context.Context, ual string) (domain.Asset, error) {
	if s.publisher == nil || strings.TrimSpace(ual) == "" {
		return nil, domain.ErrNotFound
	}
	return s.publisher.Get(ctx, ual)
}

// track records a task and forgets finished ones.
func (s *ComparisonService) track(task *worker.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		select {
		case <-t.Done():
			delete(s.tasks, id)
		default:
		}
	}
	s.tasks[task.ID] = task
}

// settleUnstarted fails a job whose task was dropped by the runner before run
// could execute, so the record never stays processing.
func (s *ComparisonService) settleUnstarted(jobID string, task *worker.Task) {
	<-task.Done()
	err := task.Err()
	if !errors.Is(err, worker.ErrNotRunning) {
		return
	}
	s.logger.Warn("comparison dropped before start", "job_id", jobID, "error", err)
	s.patchFailed(context.Background(), jobID, fmt.Errorf("comparison was not started: %w", err))
	s.metrics.JobFinished(domain.JobStatusFailed, 0)
}

// run is the background task body. It is the only writer of the job after Submit.
func (s *ComparisonService) run(
	ctx context.Context,
	job *domain.Job,
	req driving.CompareRequest,
	extractor driven.ClaimExtractionService,
	embedder driven.EmbeddingService,
) (err error) {
	start := time.Now()
	logger := s.logger.With("job_id", job.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("comparison panicked", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
		status := domain.JobStatusCompleted
		if err != nil {
			status = domain.JobStatusFailed
			logger.Error("comparison failed", "error", err, "duration", time.Since(start))
			s.patchFailed(ctx, job.ID, err)
		}
		s.metrics.JobFinished(status, time.Since(start))
	}()

	if extractor == nil {
		return fmt.Errorf("claim extraction is not configured: %w", domain.ErrMissingCredential)
	}

	result, err := s.compare(ctx, job, req, extractor, embedder, logger)
	if err != nil {
		return err
	}

	patchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalPatchTimeout)
	defer cancel()
	if _, err := s.jobs.Patch(patchCtx, job.ID, domain.JobPatch{
		Status: domain.JobStatusCompleted,
		Result: result,
	}); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	logger.Info("comparison completed",
		"claims_a", len(result.ClaimsA),
		"claims_b", len(result.ClaimsB),
		"discrepancies", len(result.Discrepancies),
		"duration", time.Since(start),
	)
	return nil
}

func (s *ComparisonService) compare(
	ctx context.Context,
	job *domain.Job,
	req driving.CompareRequest,
	extractor driven.ClaimExtractionService,
	embedder driven.EmbeddingService,
	logger *slog.Logger,
) (*domain.JobResult, error) {
	claimExtractor := NewClaimExtractor(ClaimExtractorConfig{
		Extractor:   extractor,
		Chunks:      s.chunks,
		Concurrency: s.extractConcurrency,
		Metrics:     s.metrics,
		Logger:      logger,
	})

	// Step 1: extract both sides; neither depends on the other
	var claimsA, claimsB []domain.Claim
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverAsError(&err)
		claims, err := claimExtractor.Extract(gctx, req.TextA, job.Topic, job.ID+":a")
		claimsA = claims
		return err
	})
	g.Go(func() (err error) {
		defer recoverAsError(&err)
		claims, err := claimExtractor.Extract(gctx, req.TextB, job.Topic, job.ID+":b")
		claimsB = claims
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}
	logger.Debug("claims ready", "claims_a", len(claimsA), "claims_b", len(claimsB))

	// Step 2: match
	cache := NewEmbeddingCache(embedder, s.vectors, s.metrics, logger)
	comparison, err := s.matcher.Compare(ctx, cache, job.Topic, claimsA, claimsB)
	if err != nil {
		return nil, fmt.Errorf("failed to match claims: %w", err)
	}

	result := &domain.JobResult{
		Topic:         job.Topic,
		SourceA:       job.SourceA,
		SourceB:       job.SourceB,
		ClaimsA:       claimsA,
		ClaimsB:       claimsB,
		Discrepancies: comparison.Discrepancies,
	}

	// Step 3: assets
	if s.generator == nil {
		return result, nil
	}
	assets, err := s.generator.Generate(ctx, job.ID, result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate assets: %w", err)
	}
	result.Assets = assets

	// Step 4: publish
	if s.publisher != nil {
		result.Published = s.publish(ctx, assets, logger)
	}
	return result, nil
}

// publish sends each asset separately. A failed asset maps to nil.
func (s *ComparisonService) publish(ctx context.Context, assets *domain.KnowledgeAssets, logger *slog.Logger) map[string]*domain.PublishedAsset {
	published := make(map[string]*domain.PublishedAsset)
	for _, named := range assets.Named() {
		ref, err := s.publisher.Publish(ctx, named.Asset)
		if err != nil {
			s.metrics.PublishFailed()
			logger.Warn("asset publish failed", "asset", named.Name, "error", err)
			published[named.Name] = nil
			continue
		}
		published[named.Name] = ref
	}
	return published
}

func (s *ComparisonService) patchFailed(ctx context.Context, jobID string, cause error) {
	patchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalPatchTimeout)
	defer cancel()

	msg := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = "comparison timed out: " + msg
	}
	if _, err := s.jobs.Patch(patchCtx, jobID, domain.JobPatch{
		Status: domain.JobStatusFailed,
		Error:  msg,
	}); err != nil {
		s.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
}

// recoverAsError turns a panic in the calling goroutine into *err.
func recoverAsError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
