package metrics

// Operations, job outcomes, stores and volumes known at compile time. Kept
// here as plain strings so this package stays free of domain imports.
var (
	jobOperations = []string{"trim", "concat", "convert", "filter"}
	jobStatuses   = []string{"succeeded", "failed", "cancelled"}
	stores        = []string{"uploads", "output"}
	mediaKinds    = []string{"video", "image", "unknown"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Jobs ---
	for _, op := range jobOperations {
		for _, status := range jobStatuses {
			JobsTotal.WithLabelValues(op, status)
		}
		JobDuration.WithLabelValues(op)
		JobQueueWait.WithLabelValues(op)
	}
	for _, reason := range []string{"backlog_full", "stopped"} {
		JobsRejected.WithLabelValues(reason)
	}

	// --- Probes and uploads ---
	for _, status := range []string{"success", "error"} {
		ProbesTotal.WithLabelValues(status)
	}
	for _, status := range []string{"success", "rejected", "too_large", "error"} {
		UploadsTotal.WithLabelValues(status)
	}

	// --- Previews ---
	for _, kind := range []string{"image", "video"} {
		PreviewGenerationsTotal.WithLabelValues(kind, "success")
		PreviewGenerationsTotal.WithLabelValues(kind, "error")
		PreviewGenerationDuration.WithLabelValues(kind)
	}

	// --- Stores ---
	for _, store := range stores {
		for _, kind := range mediaKinds {
			StoreFiles.WithLabelValues(store, kind)
		}
		StoreBytes.WithLabelValues(store)
		StoreScanErrors.WithLabelValues(store)
	}

	// --- Filesystem operation metrics (per volume × operation) ---
	volumes := append(append([]string{}, stores...), "unknown")
	fsOps := []string{"stat", "open", "readdir", "remove"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)

			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
