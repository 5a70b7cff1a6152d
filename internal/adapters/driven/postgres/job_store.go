package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

// uniqueViolation is the SQLSTATE for a duplicate primary key
const uniqueViolation = "23505"

// JobStore implements driven.JobStore using PostgreSQL.
// The result is stored as JSONB.
type JobStore struct {
	db *DB
}

// NewJobStore creates a new JobStore
func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

// Create stores a new job
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO comparison_jobs (id, status, topic, source_a, source_b, result, error,
			created_at, updated_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		string(job.Status),
		job.Topic,
		job.SourceA,
		job.SourceB,
		result,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID
func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	return getJob(ctx, s.db, id, false)
}

// Patch applies a status transition. The row is locked for the read so
// two writers cannot both leave the same status.
func (s *JobStore) Patch(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error) {
	var updated *domain.Job
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		job, err := getJob(ctx, tx, id, true)
		if err != nil {
			return err
		}
		from := job.Status
		if err := job.Apply(patch); err != nil {
			return err
		}
		result, err := encodeResult(job.Result)
		if err != nil {
			return err
		}

		query := `
			UPDATE comparison_jobs
			SET status = $2, result = $3, error = $4, updated_at = $5, started_at = $6, completed_at = $7
			WHERE id = $1 AND status = $8
		`
		res, err := tx.ExecContext(ctx, query,
			job.ID,
			string(job.Status),
			result,
			job.Error,
			job.UpdatedAt,
			nullTime(job.StartedAt),
			nullTime(job.CompletedAt),
			string(from),
		)
		if err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: job %s left %s concurrently", domain.ErrInvalidTransition, id, from)
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Ping checks the database connection
func (s *JobStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getJob(ctx context.Context, q queryRower, id string, forUpdate bool) (*domain.Job, error) {
	query := `
		SELECT id, status, topic, source_a, source_b, result, error,
			created_at, updated_at, started_at, completed_at
		FROM comparison_jobs
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		job         domain.Job
		status      string
		result      []byte
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&status,
		&job.Topic,
		&job.SourceA,
		&job.SourceB,
		&result,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
		&startedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	job.StartedAt = timeOrNil(startedAt)
	job.CompletedAt = timeOrNil(completedAt)
	if job.Result, err = decodeResult(result); err != nil {
		return nil, err
	}
	return &job, nil
}

// encodeResult returns the result as text; lib/pq would send []byte as bytea
func encodeResult(r *domain.JobResult) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal job result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeResult(data []byte) (*domain.JobResult, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var r domain.JobResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job result: %w", err)
	}
	return &r, nil
}
