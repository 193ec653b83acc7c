package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    Namespace + "_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	KeyOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_key_operations_total",
			Help: "Private keys generated, reused or failed during CSR production",
		},
		[]string{"operation"},
	)

	CSRGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_csr_generations_total",
			Help: "Total number of CSR generation runs by status",
		},
		[]string{"status"},
	)

	EnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_ca_enrollments_total",
			Help: "Total number of CA enrollment attempts by outcome",
		},
		[]string{"outcome"},
	)

	EnrollmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    Namespace + "_ca_enrollment_duration_seconds",
			Help:    "Time spent talking to the CA per enrollment",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	WorkflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_workflow_transitions_total",
			Help: "Total number of workflow actions applied",
		},
		[]string{"action", "result"},
	)

	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_artifact_downloads_total",
			Help: "Total number of artifact downloads by kind",
		},
		[]string{"kind"},
	)

	TempFilesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: Namespace + "_temp_files_removed_total",
			Help: "Abandoned temporary certificate files removed by the sweep job",
		},
	)

	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_job_runs_total",
			Help: "Background job iterations by job and result",
		},
		[]string{"job", "result"},
	)
)
