package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every API, static and health route on a new router.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	r.HandleFunc("/", h.Root).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Uploads
	api.HandleFunc("/upload", h.Upload).Methods(http.MethodPost)
	api.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet)
	api.HandleFunc("/files/{name}", h.DeleteFile).Methods(http.MethodDelete)
	api.HandleFunc("/preview/{name}", h.GetPreview).Methods(http.MethodGet)

	// Editing
	api.HandleFunc("/video/info/{name}", h.VideoInfo).Methods(http.MethodGet)
	api.HandleFunc("/video/trim", h.Trim).Methods(http.MethodPost)
	api.HandleFunc("/video/concat", h.Concat).Methods(http.MethodPost)
	api.HandleFunc("/video/convert", h.Convert).Methods(http.MethodPost)
	api.HandleFunc("/video/filter", h.Filter).Methods(http.MethodPost)

	// Outputs and jobs
	api.HandleFunc("/output", h.ListOutput).Methods(http.MethodGet)
	api.HandleFunc("/output/{name}", h.DeleteOutput).Methods(http.MethodDelete)
	api.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.CancelJob).Methods(http.MethodDelete)

	// Static media
	r.HandleFunc("/uploads/{name}", h.ServeUpload).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/output/{name}", h.ServeOutput).Methods(http.MethodGet, http.MethodHead)

	return r
}
