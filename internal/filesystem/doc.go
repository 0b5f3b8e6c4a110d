/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

The upload and output directories are the only state the server keeps, and they are
frequently mounted from a NAS. Every directory scan, stat, open and delete performed
by the asset stores goes through this package.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

	err := filesystem.RemoveWithRetry(path, filesystem.DefaultRetryConfig())

# Retry Behavior

Only ESTALE triggers a retry, with exponential backoff (50ms → 100ms → 200ms by
default, capped at MaxBackoff). All other errors, including os.ErrNotExist, are
returned immediately so callers can map them to NotFound.

# Metrics

Operation timings and retry counts are reported to the Observer installed with
SetObserver (the metrics package provides one). Volume labels come from the
VolumeResolver installed with SetDefaultVolumeResolver ("uploads", "output").
*/
package filesystem
