/*
Package jobs runs ffmpeg plans on a bounded worker pool.

An Executor owns a fixed number of worker goroutines and a buffered queue.
Each worker runs at most one engine process at a time, so the pool size is
the hard limit on concurrent ffmpeg processes. Submit never blocks: when the
queue is full it fails with a ResourceExhausted error and the caller decides
whether to retry.

# Lifecycle

	queued ──▶ running ──▶ succeeded
	   │          │
	   └──────────┴──────▶ failed

A job that is cancelled while queued fails immediately and is skipped when a
worker reaches it. A running job is cancelled by killing its engine process.
Only the direct child is killed; on platforms where exec cannot kill a
process, the job runs to completion and its result reports the cancellation.

# Outputs

The engine writes directly into the output directory. On exit 0 the output
is registered through the Registrar; on any failure, including cancellation,
the output path is removed, so a failed job never leaves a listed artifact.

Concat jobs feed their inputs through a concat demuxer list written next to
the output as .concat-{jobID}.txt and removed when the job finishes.

# Results

Each Submit returns a Handle. The result is delivered exactly once, when
Done is closed. Records of finished jobs are dropped: Active lists only
queued and running jobs.
*/
package jobs
