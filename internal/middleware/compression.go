package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing
	MinSize int
	// CompressibleTypes are the media types that get gzipped
	CompressibleTypes []string
	// SkipPrefixes are paths served as files; they keep byte ranges intact
	SkipPrefixes []string
}

// DefaultCompressionConfig compresses API and metrics text only. Media is
// already compressed and must stay seekable.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
			"application/openmetrics-text",
		},
		SkipPrefixes: []string{"/uploads/", "/output/", "/api/preview/"},
	}
}

var gzipWriters = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

type compressState int

const (
	statePending compressState = iota
	statePlain
	stateGzip
)

// compressWriter holds the first MinSize bytes back until it can tell
// whether the response is worth compressing.
type compressWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	state   compressState
	status  int
	pending []byte
	gz      *gzip.Writer
}

func (c *compressWriter) WriteHeader(status int) {
	if c.state == statePending && c.status == 0 {
		c.status = status
	}
}

func (c *compressWriter) Write(p []byte) (int, error) {
	switch c.state {
	case stateGzip:
		return c.gz.Write(p)
	case statePlain:
		return c.ResponseWriter.Write(p)
	}

	c.pending = append(c.pending, p...)
	if len(c.pending) < c.config.MinSize {
		return len(p), nil
	}
	if err := c.commit(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// commit picks plain or gzip output and releases the held bytes.
func (c *compressWriter) commit() error {
	if c.state != statePending {
		return nil
	}
	if c.status == 0 {
		c.status = http.StatusOK
	}

	h := c.Header()
	if len(c.pending) >= c.config.MinSize && h.Get("Content-Encoding") == "" && c.compressible(h.Get("Content-Type")) {
		c.state = stateGzip
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")

		c.gz = gzipWriters.Get().(*gzip.Writer)
		c.gz.Reset(c.ResponseWriter)
		c.ResponseWriter.WriteHeader(c.status)
		_, err := c.gz.Write(c.pending)
		c.pending = nil
		return err
	}

	c.state = statePlain
	c.ResponseWriter.WriteHeader(c.status)
	var err error
	if len(c.pending) > 0 {
		_, err = c.ResponseWriter.Write(c.pending)
	}
	c.pending = nil
	return err
}

func (c *compressWriter) compressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range c.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

func (c *compressWriter) finish() {
	c.commit()
	if c.gz != nil {
		c.gz.Close()
		gzipWriters.Put(c.gz)
		c.gz = nil
	}
}

// Flush implements http.Flusher
func (c *compressWriter) Flush() {
	c.commit()
	if c.gz != nil {
		c.gz.Flush()
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *compressWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}

// Compression returns a middleware that gzips text responses for clients
// that accept it. File routes and range requests are passed through.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) || r.Header.Get("Range") != "" || r.Method == http.MethodHead || skipPath(r.URL.Path, config.SkipPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{ResponseWriter: w, config: config}
			defer cw.finish()
			next.ServeHTTP(cw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(coding, "gzip") {
			return true
		}
	}
	return false
}

func skipPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
