package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"movie-maker/internal/logging"
)

// GetPreview renders a JPEG preview of an upload. The optional width query
// parameter selects the target width in pixels.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, "Invalid width", http.StatusBadRequest)
			return
		}
		width = v
	}

	path, err := h.editor.Uploads().Resolve(name)
	if err != nil {
		writeError(w, err, "Failed to generate preview")
		return
	}

	data, err := h.previews.Generate(r.Context(), path, width)
	if err != nil {
		writeError(w, err, "Failed to generate preview")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Preview write for %s failed: %v", name, err)
	}
}
