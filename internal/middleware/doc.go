// Package middleware provides HTTP middleware for the movie-maker server.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with the job id of
//     requests that submitted one
//   - Response compression (gzip) for JSON bodies; file routes and range
//     requests pass through untouched
//   - Prometheus request metrics labelled by route template
//   - CORS headers and preflight handling
package middleware
