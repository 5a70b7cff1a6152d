package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// EmbeddingCache memoizes text → vector lookups for one comparison run.
// Lookups go to the run memo, then the optional shared cache, then the
// embedding service. A failed lookup yields a zero-length vector, which
// scores 0 against everything, and is memoized so it is not retried.
// Safe for concurrent use.
type EmbeddingCache struct {
	embedder driven.EmbeddingService
	shared   driven.VectorCache
	metrics  MetricsRecorder
	logger   *slog.Logger

	mu   sync.Mutex
	memo map[string][]float32
}

// NewEmbeddingCache creates a run-scoped cache. shared may be nil.
func NewEmbeddingCache(embedder driven.EmbeddingService, shared driven.VectorCache, metrics MetricsRecorder, logger *slog.Logger) *EmbeddingCache {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingCache{
		embedder: embedder,
		shared:   shared,
		metrics:  metrics,
		logger:   logger,
		memo:     make(map[string][]float32),
	}
}

// Vector returns the embedding of text, or an empty vector on failure.
func (c *EmbeddingCache) Vector(ctx context.Context, text string) []float32 {
	c.mu.Lock()
	if v, ok := c.memo[text]; ok {
		c.mu.Unlock()
		c.metrics.EmbeddingLookup(EmbeddingHit)
		return v
	}
	c.mu.Unlock()

	v := c.lookup(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.memo[text]; ok {
		return existing
	}
	c.memo[text] = v
	return v
}

// Vectors returns embeddings for texts in order.
func (c *EmbeddingCache) Vectors(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = c.Vector(ctx, t)
	}
	return out
}

// Len returns the number of memoized texts.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.memo)
}

func (c *EmbeddingCache) lookup(ctx context.Context, text string) []float32 {
	if c.embedder == nil {
		c.metrics.EmbeddingLookup(EmbeddingFailure)
		return []float32{}
	}
	model := c.embedder.Model()

	if c.shared != nil {
		v, ok, err := c.shared.Get(ctx, model, text)
		if err != nil {
			c.logger.Warn("shared embedding cache read failed", "error", err)
		} else if ok {
			c.metrics.EmbeddingLookup(EmbeddingSharedHit)
			return v
		}
	}

	c.metrics.EmbeddingLookup(EmbeddingMiss)
	v, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		c.metrics.EmbeddingLookup(EmbeddingFailure)
		c.logger.Warn("embedding failed, using zero vector", "model", model, "error", err)
		return []float32{}
	}

	if c.shared != nil {
		if err := c.shared.Set(ctx, model, text, v); err != nil {
			c.logger.Warn("shared embedding cache write failed", "error", err)
		}
	}
	return v
}
