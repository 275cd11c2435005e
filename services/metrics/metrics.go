// Package metrics holds the Prometheus instrumentation of the recurring jobs, the blob storage and the uploads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	JobGenerateBills      = "generate_bills"
	JobMarkMissedSessions = "mark_missed_sessions"
)

var (
	// Job Metrics
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edura_job_runs_total",
			Help: "Total number of recurring job runs",
		},
		[]string{"job", "outcome"}, // outcome: success, partial, error
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edura_job_duration_seconds",
			Help:    "Duration of recurring job runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	JobItemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edura_job_item_failures_total",
			Help: "Total number of items a recurring job failed to process",
		},
		[]string{"job"},
	)

	BillsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edura_bills_created_total",
			Help: "Total number of tuition billing rows created by the billing job",
		},
	)

	SessionsMarkedMissed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edura_sessions_marked_missed_total",
			Help: "Total number of class sessions marked as missed",
		},
	)

	// Storage Metrics
	BlobOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edura_blob_operations_total",
			Help: "Total number of blob storage operations",
		},
		[]string{"backend", "operation", "outcome"},
	)

	BlobCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edura_blob_circuit_breaker_state",
			Help: "Blob storage circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	UploadedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edura_uploaded_bytes_total",
			Help: "Total number of bytes accepted by the upload handlers",
		},
		[]string{"kind"}, // resource, lecture, submission
	)

	// Mail Metrics
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edura_emails_sent_total",
			Help: "Total number of emails handed to the mail provider",
		},
		[]string{"outcome"},
	)
)

// ObserveJob records the duration & outcome of a job run started at start.
func ObserveJob(job string, start time.Time, outcome string) {
	JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
	JobRuns.WithLabelValues(job, outcome).Inc()
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
