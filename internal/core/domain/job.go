package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Default source labels used when a comparison request omits them.
const (
	DefaultSourceA = "Wikipedia"
	DefaultSourceB = "Grokipedia"
)

// JobStatus represents the current state of a comparison job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsValid returns true if this is a known job status
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and failed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ValidateTransition is the single authority on job lifecycle moves.
// Allowed: pending→processing, processing→completed, processing→failed.
func ValidateTransition(from, to JobStatus) error {
	switch {
	case from == JobStatusPending && to == JobStatusProcessing,
		from == JobStatusProcessing && to == JobStatusCompleted,
		from == JobStatusProcessing && to == JobStatusFailed:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Job is a pollable record of one asynchronous comparison.
type Job struct {
	ID      string     `json:"id"`
	Status  JobStatus  `json:"status"`
	Topic   string     `json:"topic"`
	SourceA string     `json:"sourceA"`
	SourceB string     `json:"sourceB"`
	Result  *JobResult `json:"result,omitempty"`
	Error   string     `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewJob creates a pending job with a fresh UUID.
func NewJob(topic, sourceA, sourceB string) *Job {
	if sourceA == "" {
		sourceA = DefaultSourceA
	}
	if sourceB == "" {
		sourceB = DefaultSourceB
	}
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Topic:     topic,
		SourceA:   sourceA,
		SourceB:   sourceB,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobPatch is a merge-patch against a stored job.
type JobPatch struct {
	Status JobStatus  `json:"status"`
	Result *JobResult `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Apply merges the patch into the job after checking the transition.
// The job is left untouched when the transition is rejected.
func (j *Job) Apply(p JobPatch) error {
	if err := ValidateTransition(j.Status, p.Status); err != nil {
		return err
	}
	now := time.Now().UTC()
	j.Status = p.Status
	j.UpdatedAt = now
	switch p.Status {
	case JobStatusProcessing:
		j.StartedAt = &now
	case JobStatusCompleted, JobStatusFailed:
		j.CompletedAt = &now
	}
	if p.Result != nil {
		j.Result = p.Result
	}
	if p.Error != "" {
		j.Error = p.Error
	}
	return nil
}

// MarkProcessing moves a pending job to processing
func (j *Job) MarkProcessing() error {
	return j.Apply(JobPatch{Status: JobStatusProcessing})
}

// Duration returns how long the job ran, zero until it is terminal
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// JobResult is stored on a completed job.
type JobResult struct {
	Topic         string                     `json:"topic"`
	SourceA       string                     `json:"sourceA"`
	SourceB       string                     `json:"sourceB"`
	ClaimsA       []Claim                    `json:"claimsA"`
	ClaimsB       []Claim                    `json:"claimsB"`
	Discrepancies []Discrepancy              `json:"discrepancies"`
	Assets        *KnowledgeAssets           `json:"assets,omitempty"`
	Published     map[string]*PublishedAsset `json:"published,omitempty"`
}
