/*
Package workers determines worker pool sizes in containerized environments.

Container CPU limits are visible through GOMAXPROCS (Go 1.19+), not through
runtime.NumCPU, which reports the host's CPUs. Every pool in the server is
sized from GOMAXPROCS.

# Transcode Pool

ForTranscode sizes the job executor. Each worker supervises exactly one
ffmpeg process and ffmpeg spreads its own work across threads, so the pool
is half the available CPUs, clamped to [2, 4]:

	GOMAXPROCS   ForTranscode()
	1-4          2
	6            3
	8+           4

Set TRANSCODE_WORKERS to a positive integer to pin the pool size.

# I/O Tasks

ForIO returns two workers per CPU, capped by limit. The preview service uses
ForIO(2) to bound concurrent frame grabs.
*/
package workers
