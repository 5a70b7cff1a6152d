package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// MockJobStore is a mock implementation of JobStore for testing.
// It records every status it stored per job.
type MockJobStore struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	history   map[string][]domain.JobStatus
	createErr error
	pingErr   error
}

// NewMockJobStore creates a new MockJobStore
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{
		jobs:    make(map[string]*domain.Job),
		history: make(map[string][]domain.JobStatus),
	}
}

func (m *MockJobStore) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	copied := *job
	m.jobs[job.ID] = &copied
	m.history[job.ID] = append(m.history[job.ID], job.Status)
	return nil
}

func (m *MockJobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *MockJobStore) Patch(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := job.Apply(patch); err != nil {
		return nil, err
	}
	m.history[id] = append(m.history[id], job.Status)
	copied := *job
	return &copied, nil
}

func (m *MockJobStore) Ping(ctx context.Context) error {
	return m.pingErr
}

// Helper methods for testing

func (m *MockJobStore) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

func (m *MockJobStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// History returns the statuses stored for a job, in order.
func (m *MockJobStore) History(id string) []domain.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.JobStatus(nil), m.history[id]...)
}

// Count returns the number of stored jobs.
func (m *MockJobStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
