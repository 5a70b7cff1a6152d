package domain

import "sync"

// RuntimeConfig tracks which capabilities are available at runtime.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	JobBackend string // "memory", "redis" or "postgres"

	// RequireCredential makes Submit refuse work while a capability is missing.
	RequireCredential bool

	// Dynamic capability flags (updated when AI services change)
	extractionAvailable bool
	embeddingAvailable  bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(jobBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		JobBackend:        jobBackend,
		RequireCredential: true,
	}
}

// ExtractionAvailable returns whether the claim extraction service is available
func (c *RuntimeConfig) ExtractionAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.extractionAvailable
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// SetExtractionAvailable updates the extraction availability flag
func (c *RuntimeConfig) SetExtractionAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extractionAvailable = available
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// CanCompare returns true if both capabilities needed by a comparison are present
func (c *RuntimeConfig) CanCompare() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.extractionAvailable && c.embeddingAvailable
}
