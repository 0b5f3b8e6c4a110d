package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"movie-maker/internal/middleware"
	"movie-maker/internal/plan"
)

// EditResponse is returned when an edit job completes.
type EditResponse struct {
	Message    string `json:"message"`
	OutputFile string `json:"outputFile"`
	OutputPath string `json:"outputPath"`
	JobID      string `json:"jobId"`
}

type trimRequest struct {
	Filename  string  `json:"filename"`
	StartTime *number `json:"startTime"`
	EndTime   *number `json:"endTime"`
}

type concatRequest struct {
	Filenames []string `json:"filenames"`
}

type convertRequest struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Quality  string `json:"quality"`
}

type filterRequest struct {
	Filename   string  `json:"filename"`
	Brightness *number `json:"brightness"`
	Contrast   *number `json:"contrast"`
	Saturation *number `json:"saturation"`
}

// VideoInfo probes an upload.
func (h *Handlers) VideoInfo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := h.editor.Probe(r.Context(), name)
	if err != nil {
		writeError(w, err, "Failed to get video information")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, info)
}

// Trim cuts a time range out of an upload.
func (h *Handlers) Trim(w http.ResponseWriter, r *http.Request) {
	var body trimRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Filename == "" || body.StartTime == nil || body.EndTime == nil {
		writeJSONError(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	h.runEdit(w, r, plan.Trim{
		Source: body.Filename,
		Start:  float64(*body.StartTime),
		End:    float64(*body.EndTime),
	}, "Video trimmed successfully", "Failed to trim video")
}

// Concat joins uploads end to end in the order given.
func (h *Handlers) Concat(w http.ResponseWriter, r *http.Request) {
	var body concatRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.Filenames) < 2 {
		writeJSONError(w, "At least 2 files are required", http.StatusBadRequest)
		return
	}

	h.runEdit(w, r, plan.Concat{Names: body.Filenames},
		"Videos concatenated successfully", "Failed to concatenate videos")
}

// Convert re-encodes an upload into another container.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	var body convertRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Filename == "" || body.Format == "" {
		writeJSONError(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	h.runEdit(w, r, plan.Convert{
		Source:  body.Filename,
		Format:  body.Format,
		Quality: plan.Quality(body.Quality),
	}, "Video converted successfully", "Failed to convert video")
}

// Filter applies a colour adjustment to an upload.
func (h *Handlers) Filter(w http.ResponseWriter, r *http.Request) {
	var body filterRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Filename == "" {
		writeJSONError(w, "Missing filename parameter", http.StatusBadRequest)
		return
	}

	h.runEdit(w, r, plan.Filter{
		Source:     body.Filename,
		Brightness: body.Brightness.float(),
		Contrast:   body.Contrast.float(),
		Saturation: body.Saturation.float(),
	}, "Video filter applied successfully", "Failed to apply video filter")
}

// runEdit submits req and responds once the job has finished. The job ID
// header is set as soon as one exists so clients can correlate failures.
func (h *Handlers) runEdit(w http.ResponseWriter, r *http.Request, req plan.Request, success, failure string) {
	res, err := h.editor.Run(r.Context(), req)
	if res.JobID != "" {
		w.Header().Set(middleware.JobIDHeader, res.JobID)
	}
	if err != nil {
		writeError(w, err, failure)
		return
	}

	writeJSONStatus(w, http.StatusOK, EditResponse{
		Message:    success,
		OutputFile: res.Artifact.Name,
		OutputPath: "/output/" + res.Artifact.Name,
		JobID:      res.JobID,
	})
}
