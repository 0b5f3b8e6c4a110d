package editor

import (
	"context"

	"movie-maker/internal/apperr"
	"movie-maker/internal/assets"
	"movie-maker/internal/jobs"
	"movie-maker/internal/logging"
	"movie-maker/internal/plan"
	"movie-maker/internal/probe"
)

// JobRunner accepts plans for execution. *jobs.Executor implements it.
type JobRunner interface {
	Submit(p *plan.Plan) (*jobs.Handle, error)
	Cancel(id string) error
	Active() []jobs.Info
	Stats() jobs.Stats
}

// Prober inspects a media file. *probe.Prober implements it.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Result, error)
}

// Service validates edit requests, resolves their sources and hands the
// resulting plans to the job runner.
type Service struct {
	uploads *assets.Store
	outputs *assets.Store
	builder *plan.Builder
	runner  JobRunner
	prober  Prober
}

// New creates a Service.
func New(uploads, outputs *assets.Store, builder *plan.Builder, runner JobRunner, prober Prober) *Service {
	return &Service{
		uploads: uploads,
		outputs: outputs,
		builder: builder,
		runner:  runner,
		prober:  prober,
	}
}

// Uploads returns the upload store.
func (s *Service) Uploads() *assets.Store { return s.uploads }

// Outputs returns the output store.
func (s *Service) Outputs() *assets.Store { return s.outputs }

// Jobs returns the job runner.
func (s *Service) Jobs() JobRunner { return s.runner }

// Submit resolves every source of req, builds the plan and submits it. Name,
// existence and parameter errors are returned before anything is queued.
func (s *Service) Submit(ctx context.Context, req plan.Request) (*jobs.Handle, error) {
	if req == nil {
		return nil, apperr.Validation("submit", "missing request")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled("submit", "request ended before submission")
	}

	sources := req.Sources()
	inputs := make([]string, len(sources))
	for i, name := range sources {
		path, err := s.uploads.Resolve(name)
		if err != nil {
			return nil, err
		}
		inputs[i] = path
	}

	p, err := s.builder.Build(req, inputs)
	if err != nil {
		return nil, err
	}

	h, err := s.runner.Submit(p)
	if err != nil {
		logging.Warn("Rejected %s: %v", req, err)
		return nil, err
	}

	logging.Info("Accepted job %s: %s -> %s", h.ID, req, p.OutputName)
	return h, nil
}

// Run submits req and waits for its result. If ctx ends first the job keeps
// running and its output is still registered when it completes; the
// returned Result carries the job ID in every case after submission.
func (s *Service) Run(ctx context.Context, req plan.Request) (jobs.Result, error) {
	h, err := s.Submit(ctx, req)
	if err != nil {
		return jobs.Result{}, err
	}

	res, err := h.Wait(ctx)
	if err != nil {
		logging.Info("Caller stopped waiting for job %s; it continues in the background", h.ID)
		return jobs.Result{JobID: h.ID}, apperr.Cancelled("run", "request ended before job %s finished", h.ID)
	}
	return res, res.Err
}

// Probe inspects an uploaded asset.
func (s *Service) Probe(ctx context.Context, name string) (*probe.Result, error) {
	path, err := s.uploads.Resolve(name)
	if err != nil {
		return nil, err
	}
	return s.prober.Probe(ctx, path)
}
