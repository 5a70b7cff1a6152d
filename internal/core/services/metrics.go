package services

import (
	"time"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// Embedding lookup outcomes reported to MetricsRecorder.
const (
	EmbeddingHit       = "hit"
	EmbeddingSharedHit = "shared_hit"
	EmbeddingMiss      = "miss"
	EmbeddingFailure   = "failure"
)

// MetricsRecorder receives pipeline telemetry.
type MetricsRecorder interface {
	JobSubmitted()
	JobFinished(status domain.JobStatus, duration time.Duration)
	ChunkFailed()
	EmbeddingLookup(outcome string)
	PublishFailed()
	DiscrepanciesFound(kind domain.DiscrepancyType, n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) JobSubmitted()                                  {}
func (NopMetrics) JobFinished(domain.JobStatus, time.Duration)    {}
func (NopMetrics) ChunkFailed()                                   {}
func (NopMetrics) EmbeddingLookup(string)                         {}
func (NopMetrics) PublishFailed()                                 {}
func (NopMetrics) DiscrepanciesFound(domain.DiscrepancyType, int) {}
