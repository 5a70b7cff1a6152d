package driven

import (
	"context"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// JobStore persists comparison jobs (memory, Redis or Postgres)
type JobStore interface {
	// Create stores a new job. Returns domain.ErrAlreadyExists on id collision.
	Create(ctx context.Context, job *domain.Job) error

	// Get retrieves a job by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Job, error)

	// Patch merges a patch into the stored job and returns the result.
	// Returns domain.ErrInvalidTransition when the status move is not allowed.
	Patch(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error)

	// Ping checks the backing store
	Ping(ctx context.Context) error
}
