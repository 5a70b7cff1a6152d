package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/services"
)

// Ensure Recorder implements MetricsRecorder
var _ services.MetricsRecorder = (*Recorder)(nil)

const namespace = "truthscope"

// Recorder exports pipeline telemetry to Prometheus on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	jobsSubmitted    prometheus.Counter
	jobsFinished     *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	chunkFailures    prometheus.Counter
	embeddingLookups *prometheus.CounterVec
	publishFailures  prometheus.Counter
	discrepancies    *prometheus.CounterVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors attached.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		jobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Comparison jobs accepted",
		}),
		jobsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Comparison jobs that reached a terminal status",
		}, []string{"status"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Wall time of a comparison job",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"status"}),
		chunkFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "chunk_failures_total",
			Help:      "Chunks whose extraction failed and were skipped",
		}),
		embeddingLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embeddings",
			Name:      "lookups_total",
			Help:      "Embedding cache lookups by outcome",
		}, []string{"outcome"}),
		publishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "publish_failures_total",
			Help:      "Knowledge assets that could not be published",
		}),
		discrepancies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "discrepancies_total",
			Help:      "Discrepancies reported by type",
		}, []string{"type"}),
	}
}

func (r *Recorder) JobSubmitted() {
	r.jobsSubmitted.Inc()
}

func (r *Recorder) JobFinished(status domain.JobStatus, duration time.Duration) {
	r.jobsFinished.WithLabelValues(string(status)).Inc()
	r.jobDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

func (r *Recorder) ChunkFailed() {
	r.chunkFailures.Inc()
}

func (r *Recorder) EmbeddingLookup(outcome string) {
	r.embeddingLookups.WithLabelValues(outcome).Inc()
}

func (r *Recorder) PublishFailed() {
	r.publishFailures.Inc()
}

func (r *Recorder) DiscrepanciesFound(kind domain.DiscrepancyType, n int) {
	if n <= 0 {
		return
	}
	r.discrepancies.WithLabelValues(string(kind)).Add(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
