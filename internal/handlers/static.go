package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"movie-maker/internal/assets"
	"movie-maker/internal/mediatypes"
)

// Root identifies the server.
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, "Movie Maker API Server")
}

// ServeUpload serves an uploaded file with range support.
func (h *Handlers) ServeUpload(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, r, h.editor.Uploads(), mux.Vars(r)["name"])
}

// ServeOutput serves a completed output with range support.
func (h *Handlers) ServeOutput(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if h.inProgress()[name] {
		http.NotFound(w, r)
		return
	}
	serveAsset(w, r, h.editor.Outputs(), name)
}

// serveAsset answers 404 for anything Resolve rejects, dot-files and
// traversal attempts included.
func serveAsset(w http.ResponseWriter, r *http.Request, store *assets.Store, name string) {
	path, err := store.Resolve(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(mediatypes.Ext(name)))
	http.ServeFile(w, r, path)
}
