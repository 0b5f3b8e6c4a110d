package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"movie-maker/internal/apperr"
	"movie-maker/internal/jobs"
	"movie-maker/internal/mediatypes"
	"movie-maker/internal/plan"
)

// OutputEntry is one row of the output listing.
type OutputEntry struct {
	Filename  string          `json:"filename"`
	Size      int64           `json:"size"`
	CreatedAt time.Time       `json:"createdAt"`
	Kind      mediatypes.Kind `json:"kind"`
	Operation plan.Operation  `json:"operation,omitempty"`
}

// JobEntry describes a queued or running job.
type JobEntry struct {
	ID          string         `json:"id"`
	Operation   plan.Operation `json:"operation"`
	OutputFile  string         `json:"outputFile"`
	State       jobs.State     `json:"state"`
	SubmittedAt time.Time      `json:"submittedAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
}

// ListOutput returns completed outputs. Files still being written by a job
// are left out.
func (h *Handlers) ListOutput(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.editor.Outputs().ListArtifacts(r.Context())
	if err != nil {
		writeError(w, err, "Failed to read output files")
		return
	}

	pending := h.inProgress()
	files := make([]OutputEntry, 0, len(artifacts))
	for _, a := range artifacts {
		if pending[a.Name] {
			continue
		}
		files = append(files, OutputEntry{
			Filename:  a.Name,
			Size:      a.Size,
			CreatedAt: a.CreatedAt,
			Kind:      a.Kind,
			Operation: a.Operation,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, files)
}

// DeleteOutput removes a completed output.
func (h *Handlers) DeleteOutput(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if h.inProgress()[name] {
		writeError(w, apperr.Validation("delete", "output %s is still being written", name), "Failed to delete file")
		return
	}
	if err := h.editor.Outputs().Delete(name); err != nil {
		writeError(w, err, "Failed to delete file")
		return
	}
	writeMessage(w, "File deleted successfully")
}

// ListJobs returns queued and running jobs, oldest first.
func (h *Handlers) ListJobs(w http.ResponseWriter, _ *http.Request) {
	active := h.editor.Jobs().Active()

	entries := make([]JobEntry, 0, len(active))
	for _, info := range active {
		entry := JobEntry{
			ID:          info.ID,
			Operation:   info.Operation,
			OutputFile:  info.OutputName,
			State:       info.State,
			SubmittedAt: info.SubmittedAt,
		}
		if !info.StartedAt.IsZero() {
			started := info.StartedAt
			entry.StartedAt = &started
		}
		entries = append(entries, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entries)
}

// CancelJob cancels a queued or running job. The request that submitted it
// receives a 409.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.editor.Jobs().Cancel(id); err != nil {
		writeError(w, err, "Failed to cancel job")
		return
	}
	writeMessage(w, "Job cancelled")
}
