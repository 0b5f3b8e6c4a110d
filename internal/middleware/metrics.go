package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"movie-maker/internal/metrics"
)

// metricsResponseWriter wraps http.ResponseWriter to capture status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *metricsResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newMetricsResponseWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routes with a trailing name or id segment, collapsed to one label each
var dynamicRoutes = []struct {
	prefix   string
	template string
}{
	{"/api/files/", "/api/files/{name}"},
	{"/api/output/", "/api/output/{name}"},
	{"/api/video/info/", "/api/video/info/{name}"},
	{"/api/preview/", "/api/preview/{name}"},
	{"/api/jobs/", "/api/jobs/{id}"},
	{"/uploads/", "/uploads/{name}"},
	{"/output/", "/output/{name}"},
}

var staticRoutes = map[string]bool{
	"/":                  true,
	"/version":           true,
	"/api/upload":        true,
	"/api/files":         true,
	"/api/output":        true,
	"/api/jobs":          true,
	"/api/video/trim":    true,
	"/api/video/concat":  true,
	"/api/video/convert": true,
	"/api/video/filter":  true,
}

// normalizePath maps a request path to its route template so that file
// names and job ids do not become label values. Unknown paths share a
// single label.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}
	for _, route := range dynamicRoutes {
		if strings.HasPrefix(path, route.prefix) && len(path) > len(route.prefix) {
			return route.template
		}
	}
	return "{unmatched}"
}
