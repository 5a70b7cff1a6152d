package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.VectorCache = (*VectorCache)(nil)

// VectorCache keeps embeddings in process memory with a TTL and an entry cap.
type VectorCache struct {
	cache      *gocache.Cache
	maxEntries int
}

// VectorCacheConfig holds configuration for the in-memory vector cache
type VectorCacheConfig struct {
	TTL             time.Duration // Entry lifetime, default 1h
	CleanupInterval time.Duration // Expired entry sweep, default 10m
	MaxEntries      int           // Sets beyond this are dropped, default 10000
}

// NewVectorCache creates a new in-memory vector cache
func NewVectorCache(cfg VectorCacheConfig) *VectorCache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &VectorCache{
		cache:      gocache.New(cfg.TTL, cfg.CleanupInterval),
		maxEntries: cfg.MaxEntries,
	}
}

func vectorKey(model, text string) string {
	return model + "\x00" + text
}

// Get returns the cached vector and whether it was found
func (c *VectorCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	if val, found := c.cache.Get(vectorKey(model, text)); found {
		return val.([]float32), true, nil
	}
	return nil, false, nil
}

// Set stores a copy of vector. When the cache is full the vector is not stored.
func (c *VectorCache) Set(ctx context.Context, model, text string, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	if c.cache.ItemCount() >= c.maxEntries {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxEntries {
			return nil
		}
	}
	c.cache.SetDefault(vectorKey(model, text), append([]float32(nil), vector...))
	return nil
}

// Len returns the number of cached vectors, expired ones included until swept
func (c *VectorCache) Len() int {
	return c.cache.ItemCount()
}
