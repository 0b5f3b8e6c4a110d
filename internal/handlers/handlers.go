package handlers

import (
	"sync/atomic"
	"time"

	"movie-maker/internal/editor"
	"movie-maker/internal/preview"
	"movie-maker/internal/startup"
)

type Handlers struct {
	editor    *editor.Service
	previews  *preview.Generator
	maxUpload int64
	engines   startup.EngineInfo
	startTime time.Time

	shuttingDown atomic.Bool
}

func New(svc *editor.Service, previews *preview.Generator, config *startup.Config, engines startup.EngineInfo) *Handlers {
	maxUpload := config.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = startup.DefaultMaxUploadBytes
	}
	return &Handlers{
		editor:    svc,
		previews:  previews,
		maxUpload: maxUpload,
		engines:   engines,
		startTime: time.Now(),
	}
}

// SetShuttingDown makes the readiness probe fail so load balancers stop
// routing new edits here while running jobs drain.
func (h *Handlers) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// inProgress returns the output names of queued and running jobs. Those
// files may exist on disk but are not complete yet.
func (h *Handlers) inProgress() map[string]bool {
	active := h.editor.Jobs().Active()
	names := make(map[string]bool, len(active))
	for _, info := range active {
		names[info.OutputName] = true
	}
	return names
}
