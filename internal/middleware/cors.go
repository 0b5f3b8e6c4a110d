package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API. "*" allows any.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders are readable by browser scripts on cross-origin responses.
	ExposedHeaders []string
	MaxAge         string
}

// DefaultCORSConfig allows any origin, matching a bare cors() setup.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Job-Id", "Retry-After", "Content-Length", "Content-Range"},
		MaxAge:         "600",
	}
}

// CORS returns a middleware that sets cross-origin headers and answers
// preflight requests.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	allowAny := false
	allow := make(map[string]struct{}, len(config.AllowedOrigins))
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			allowAny = true
		}
		allow[strings.TrimRight(origin, "/")] = struct{}{}
	}

	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	exposed := strings.Join(config.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := false

			if origin != "" {
				h := w.Header()
				h.Add("Vary", "Origin")

				if _, ok := allow[origin]; ok || allowAny {
					allowed = true
					if allowAny {
						h.Set("Access-Control-Allow-Origin", "*")
					} else {
						h.Set("Access-Control-Allow-Origin", origin)
					}
					if exposed != "" {
						h.Set("Access-Control-Expose-Headers", exposed)
					}
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					h := w.Header()
					h.Set("Access-Control-Allow-Methods", methods)
					if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
						h.Set("Access-Control-Allow-Headers", requested)
					} else {
						h.Set("Access-Control-Allow-Headers", headers)
					}
					if config.MaxAge != "" {
						h.Set("Access-Control-Max-Age", config.MaxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
