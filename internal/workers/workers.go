package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Bounds for the automatically sized transcode pool. Each worker owns one
// ffmpeg process, and ffmpeg itself is multi-threaded, so the pool is much
// smaller than the CPU count.
const (
	MinTranscode = 2
	MaxTranscode = 4
)

// TranscodeEnv names the environment variable that overrides ForTranscode.
const TranscodeEnv = "TRANSCODE_WORKERS"

// Count returns the number of workers for a task with the given per-CPU
// multiplier. It respects container CPU limits via GOMAXPROCS.
//
// The limit parameter caps the worker count. Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForTranscode returns the size of the transcode worker pool: half the
// available CPUs, clamped to [MinTranscode, MaxTranscode].
//
// A positive integer in TRANSCODE_WORKERS is used as-is.
func ForTranscode() int {
	if override := os.Getenv(TranscodeEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return count
		}
	}

	workers := Count(0.5, MaxTranscode)
	if workers < MinTranscode {
		workers = MinTranscode
	}
	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// The limit parameter caps the maximum number of workers.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
