// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads configuration in three layers, later layers winning:
//
//  1. built-in defaults
//  2. the TOML file named by CONFIG_FILE, if set
//  3. environment variables, including any loaded from .env.local and .env
//     in the working directory
//
// The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 5000)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - UPLOAD_DIR: Directory holding uploaded assets (default: ./uploads)
//   - OUTPUT_DIR: Directory holding job outputs (default: ./output)
//   - FFMPEG_PATH, FFPROBE_PATH: Engine binaries (default: looked up in PATH)
//   - TRANSCODE_WORKERS: Concurrent ffmpeg processes (default: 2-4 by CPU)
//   - JOB_BACKLOG: Jobs that may wait for a worker (default: 32)
//   - JOB_TIMEOUT: Per-job limit as Go duration, 0 for none (default: 0)
//   - MAX_UPLOAD_BYTES: Upload size limit, e.g. 100MiB (default: 100MiB)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - LOG_LEVEL, LOG_FORMAT: Logging level and console/json output
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Both directories are created if missing and must be writable. They must
// not be the same directory.
//
// # Instance Lock
//
// [AcquireLock] takes a non-blocking file lock in the output directory so a
// second server cannot run its own worker pool over the same files.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides logging functions for consistent output:
//   - [CheckEngines]: ffmpeg and ffprobe availability
//   - [LogExecutorInit]: Worker pool size and backlog
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
