// Package metrics provides Prometheus instrumentation for the movie-maker server.
//
// All metrics are registered with promauto at package init and prefixed with
// "movie_maker_". The /metrics endpoint is served on its own listener
// (METRICS_PORT) so scrapes never share the API port.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path template and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Job Metrics
//
// Recorded by the job executor:
//   - JobsTotal: Counter of finished jobs by operation and status
//   - JobDuration: Histogram of engine run time by operation
//   - JobQueueWait: Histogram of time spent queued
//   - JobsInProgress: Gauge of running engine processes (never above JobWorkers)
//   - JobQueueDepth: Gauge of jobs waiting for a worker
//   - JobsRejected: Counter of refused submissions by reason
//   - JobWorkers: Gauge of the pool size
//
// ## Probe, Upload and Preview Metrics
//
//   - ProbesTotal / ProbeDuration: ffprobe invocations
//   - UploadsTotal / UploadBytes: accepted and refused uploads
//   - PreviewGenerationsTotal / PreviewGenerationDuration: preview renders
//
// ## Store Metrics
//
// Updated by the Collector, which rescans both directories on an interval:
//   - StoreFiles: Gauge of files by store and media kind
//   - StoreBytes: Gauge of bytes by store
//   - StoreScanErrors: Counter of failed scans
//
// ## Memory Metrics
//
// Set by the memory monitor:
//   - MemoryUsageRatio: heap allocation over the memory limit
//   - MemoryPaused: 1 while previews are refused
//   - MemoryGCTriggered: collections forced on entering the paused state
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver:
// per-volume operation durations, errors, ESTALE counts and retry outcomes.
//
// # Usage
//
//	metrics.InitializeMetrics()
//	metrics.SetAppInfo(version, commit, runtime.Version())
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//
//	collector := metrics.NewCollector(map[string]metrics.StatsProvider{
//	    "uploads": uploadStats,
//	    "output":  outputStats,
//	}, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
