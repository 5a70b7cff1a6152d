package driven

import "context"

// VectorCache stores embeddings across comparison runs, keyed by model and exact text.
// Implementations must be bounded (TTL or size).
type VectorCache interface {
	// Get returns the cached vector and whether it was found
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Set stores a vector
	Set(ctx context.Context, model, text string, vector []float32) error
}
