package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.JobStore = (*JobStore)(nil)

// JobStore keeps jobs in process memory. Jobs are evicted after the retention period.
// Jobs do not survive a restart; use the Redis or Postgres store for that.
type JobStore struct {
	// mu serialises read-modify-write in Patch
	mu   sync.Mutex
	jobs *gocache.Cache
}

// NewJobStore creates a new in-memory job store. A zero retention keeps jobs forever.
func NewJobStore(retention time.Duration) *JobStore {
	ttl := retention
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &JobStore{jobs: gocache.New(ttl, 10*time.Minute)}
}

// Create stores a new job
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	if err := s.jobs.Add(job.ID, &copied, gocache.DefaultExpiration); err != nil {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a copy of a job by ID
func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	val, found := s.jobs.Get(id)
	if !found {
		return nil, domain.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *val.(*domain.Job)
	return &copied, nil
}

// Patch applies a status transition atomically
func (s *JobStore) Patch(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, found := s.jobs.Get(id)
	if !found {
		return nil, domain.ErrNotFound
	}
	updated := *val.(*domain.Job)
	if err := updated.Apply(patch); err != nil {
		return nil, err
	}
	s.jobs.SetDefault(id, &updated)

	copied := updated
	return &copied, nil
}

// Ping always succeeds for the memory store
func (s *JobStore) Ping(ctx context.Context) error {
	return nil
}
