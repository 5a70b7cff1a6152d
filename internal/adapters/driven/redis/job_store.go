package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

const (
	jobPrefix = "truthscope:job:"

	// patchRetries bounds optimistic-lock retries when a job changes under WATCH
	patchRetries = 5
)

// JobStore implements driven.JobStore using Redis.
// Jobs are JSON documents that expire after the retention period.
type JobStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewJobStore creates a new Redis-backed JobStore. A zero retention keeps jobs forever.
func NewJobStore(client *redis.Client, retention time.Duration) *JobStore {
	return &JobStore{client: client, retention: retention}
}

// Create stores a new job, failing if the id is taken
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ok, err := s.client.SetNX(ctx, jobPrefix+job.ID, data, s.retention).Result()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a job by ID
func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, jobPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return decodeJob(data)
}

// Patch applies a status transition inside a WATCH transaction so that
// concurrent writers cannot both move a job out of the same status.
func (s *JobStore) Patch(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error) {
	key := jobPrefix + id
	var updated *domain.Job

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		job, err := decodeJob(data)
		if err != nil {
			return err
		}
		if err := job.Apply(patch); err != nil {
			return err
		}
		encoded, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.retention)
			return nil
		})
		if err == nil {
			updated = job
		}
		return err
	}

	for i := 0; i < patchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to patch job: %w", err)
	}
	return nil, fmt.Errorf("failed to patch job %s: too much contention", id)
}

// Ping checks the Redis connection
func (s *JobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeJob(data []byte) (*domain.Job, error) {
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}
