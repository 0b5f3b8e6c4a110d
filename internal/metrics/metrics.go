package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_maker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_maker_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job executor metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_jobs_total",
			Help: "Total number of finished transcode jobs",
		},
		[]string{"operation", "status"}, // status: "succeeded", "failed", "cancelled"
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_maker_job_duration_seconds",
			Help:    "Transcode job run time in seconds, from start to finish",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"operation"},
	)

	JobQueueWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_maker_job_queue_wait_seconds",
			Help:    "Time a job spent queued before a worker claimed it",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"operation"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_maker_jobs_in_progress",
			Help: "Number of engine processes currently running",
		},
	)

	JobQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_maker_job_queue_depth",
			Help: "Number of jobs waiting for a worker",
		},
	)

	JobsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_jobs_rejected_total",
			Help: "Total number of submissions rejected by the executor",
		},
		[]string{"reason"}, // "backlog_full", "stopped"
	)

	JobWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_maker_job_workers",
			Help: "Size of the transcode worker pool",
		},
	)
)

// Probe metrics
var (
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_probes_total",
			Help: "Total number of ffprobe invocations",
		},
		[]string{"status"},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movie_maker_probe_duration_seconds",
			Help:    "ffprobe run time in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Upload metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_uploads_total",
			Help: "Total number of upload attempts",
		},
		[]string{"status"}, // "success", "rejected", "too_large", "error"
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_maker_upload_bytes_total",
			Help: "Total number of bytes stored from uploads",
		},
	)
)

// Preview metrics
var (
	PreviewGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_preview_generations_total",
			Help: "Total number of preview renders",
		},
		[]string{"kind", "status"},
	)

	PreviewGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_maker_preview_generation_duration_seconds",
			Help:    "Preview render time in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
)

// Store metrics
var (
	StoreFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movie_maker_store_files",
			Help: "Number of files in a store by media kind",
		},
		[]string{"store", "kind"},
	)

	StoreBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movie_maker_store_bytes",
			Help: "Total size of the files in a store",
		},
		[]string{"store"},
	)

	StoreScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_store_scan_errors_total",
			Help: "Total number of failed store scans by the collector",
		},
		[]string{"store"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_maker_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_filesystem_retry_attempts_total",
			Help: "Total number of retries after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_filesystem_retry_failures_total",
			Help: "Total number of operations that exhausted their retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_maker_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_maker_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried filesystem operation",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_maker_memory_usage_ratio",
			Help: "Go heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_maker_memory_paused",
			Help: "1 while previews are refused because memory is critical",
		},
	)

	MemoryGCTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_maker_memory_gc_triggered_total",
			Help: "Garbage collections forced by the memory monitor",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movie_maker_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
