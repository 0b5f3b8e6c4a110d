package handlers

import (
	"net/http"

	"movie-maker/internal/startup"
)

// VersionResponse is the build information plus the engine versions found
// at startup.
type VersionResponse struct {
	startup.BuildInfo
	Engines startup.EngineInfo `json:"engines"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, VersionResponse{
		BuildInfo: startup.GetBuildInfo(),
		Engines:   h.engines,
	})
}
