// Package main provides the entry point for the Movie Maker API server.
//
// Movie Maker accepts uploaded video and image files and runs trim, concat,
// convert and filter edits on them with FFmpeg. Every edit becomes a job on
// a bounded worker pool, so the number of FFmpeg processes never exceeds the
// configured worker count no matter how many requests arrive.
//
// # Application Lifecycle
//
//  1. Configuration Loading: .env files, optional TOML file, environment
//  2. Instance Lock: a file lock in the output directory
//  3. Stores: upload and output directories, scanned once for the log
//  4. Engine Check: ffmpeg and ffprobe versions
//  5. Job Executor: worker pool sized from TRANSCODE_WORKERS
//  6. HTTP Server Setup: routes and middleware
//  7. Graceful Shutdown on SIGINT/SIGTERM
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 5000):
//     - Upload, listing and delete endpoints
//     - Edit endpoints that answer when the job finishes
//     - Static serving of uploads and outputs with range support
//     - Health and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Graceful Shutdown
//
//  1. Readiness probe starts failing
//  2. HTTP server stops accepting requests and waits for in-flight edits
//  3. Job executor cancels anything left and waits for its workers
//  4. Metrics collector and metrics server stop
//  5. Instance lock is released
//
// All steps share a 30 second deadline.
//
// # Related Packages
//
//   - [movie-maker/internal/assets]: Upload and output directories
//   - [movie-maker/internal/editor]: Request validation and submission
//   - [movie-maker/internal/jobs]: Worker pool and job lifecycle
//   - [movie-maker/internal/handlers]: HTTP request handlers
//   - [movie-maker/internal/middleware]: HTTP middleware (logging, metrics, CORS)
//   - [movie-maker/internal/startup]: Configuration and initialization
package main
