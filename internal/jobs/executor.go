package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"movie-maker/internal/apperr"
	"movie-maker/internal/assets"
	"movie-maker/internal/engine"
	"movie-maker/internal/logging"
	"movie-maker/internal/metrics"
	"movie-maker/internal/plan"
	"movie-maker/internal/workers"
)

// Registrar records finished outputs. The output assets.Store implements it.
type Registrar interface {
	Adopt(name string) (assets.Artifact, error)
}

// Config configures an Executor.
type Config struct {
	// Workers is the number of concurrent engine processes.
	Workers int
	// Backlog is how many jobs may wait for a worker before Submit refuses.
	Backlog int
	// Binary is the ffmpeg executable.
	Binary string
	// JobTimeout bounds a single run. Zero means no limit.
	JobTimeout time.Duration
	// StderrTail is how many bytes of engine stderr are kept for errors.
	StderrTail int
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		Workers:    workers.ForTranscode(),
		Backlog:    32,
		Binary:     "ffmpeg",
		StderrTail: 4096,
	}
}

// Stats is a point-in-time view of the executor.
type Stats struct {
	Workers int
	Running int
	Queued  int
}

// Executor runs plans on a fixed pool of workers. The pool size is a hard
// cap on concurrent engine processes.
type Executor struct {
	cfg       Config
	registrar Registrar

	queue chan *Job

	mu      sync.Mutex
	jobs    map[string]*Job
	running int
	stopped bool

	baseCtx    context.Context
	baseCancel context.CancelFunc

	startOnce sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// New creates an executor. Call Start to launch the workers.
func New(cfg Config, registrar Registrar) *Executor {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = def.Backlog
	}
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.StderrTail <= 0 {
		cfg.StderrTail = def.StderrTail
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		cfg:        cfg,
		registrar:  registrar,
		queue:      make(chan *Job, cfg.Backlog),
		jobs:       make(map[string]*Job),
		baseCtx:    ctx,
		baseCancel: cancel,
		now:        time.Now,
	}
}

// Config returns the effective configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// Start launches the worker goroutines. Calling it more than once has no
// further effect.
func (e *Executor) Start() {
	e.startOnce.Do(func() {
		metrics.JobWorkers.Set(float64(e.cfg.Workers))
		for i := 0; i < e.cfg.Workers; i++ {
			e.wg.Add(1)
			go e.worker()
		}
		logging.Info("Job executor started: %d workers, backlog %d", e.cfg.Workers, e.cfg.Backlog)
	})
}

// Submit enqueues p without blocking. It fails with ResourceExhausted when
// the backlog is full and with Cancelled after Stop.
func (e *Executor) Submit(p *plan.Plan) (*Handle, error) {
	if p == nil {
		return nil, apperr.Validation("submit", "missing plan")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		metrics.JobsRejected.WithLabelValues("stopped").Inc()
		return nil, apperr.Cancelled("submit", "executor is shutting down")
	}

	ctx, cancel := context.WithCancel(e.baseCtx)
	job := &Job{
		ID:          uuid.NewString(),
		Plan:        p,
		state:       StateQueued,
		submittedAt: e.now(),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	select {
	case e.queue <- job:
	default:
		cancel()
		metrics.JobsRejected.WithLabelValues("backlog_full").Inc()
		return nil, apperr.ResourceExhausted("submit", "job backlog is full (%d queued)", e.cfg.Backlog)
	}

	e.jobs[job.ID] = job
	metrics.JobQueueDepth.Set(float64(len(e.queue)))
	logging.Debug("Job %s queued: %s", job.ID, p)

	return &Handle{ID: job.ID, job: job}, nil
}

// Cancel stops a job. A queued job fails immediately with Cancelled and is
// skipped by the workers; a running job has its engine process killed.
func (e *Executor) Cancel(id string) error {
	e.mu.Lock()
	job, ok := e.jobs[id]
	if !ok {
		e.mu.Unlock()
		return apperr.NotFound("cancel", "job not found: %s", id)
	}

	if job.state == StateQueued {
		e.failQueuedLocked(job)
		e.mu.Unlock()
		e.deliver(job, Result{JobID: job.ID, Err: apperr.Cancelled("job "+job.ID, "cancelled before start")})
		return nil
	}
	e.mu.Unlock()

	logging.Info("Cancelling running job %s", id)
	job.cancel()
	return nil
}

// Active returns the queued and running jobs, oldest first.
func (e *Executor) Active() []Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Info, 0, len(e.jobs))
	for _, job := range e.jobs {
		out = append(out, job.info())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats reports pool occupancy.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Workers: e.cfg.Workers,
		Running: e.running,
		Queued:  len(e.jobs) - e.running,
	}
}

// Stop refuses new work, cancels every queued and running job and waits for
// the workers to exit or ctx to end.
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return e.wait(ctx)
	}
	e.stopped = true
	close(e.queue)

	var queued []*Job
	for _, job := range e.jobs {
		if job.state == StateQueued {
			e.failQueuedLocked(job)
			queued = append(queued, job)
		}
	}
	e.mu.Unlock()

	for _, job := range queued {
		e.deliver(job, Result{JobID: job.ID, Err: apperr.Cancelled("job "+job.ID, "executor stopped")})
	}

	// Kills running engine processes.
	e.baseCancel()

	logging.Info("Job executor stopping: %d queued jobs cancelled", len(queued))
	return e.wait(ctx)
}

func (e *Executor) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// failQueuedLocked moves a queued job to failed and forgets it.
func (e *Executor) failQueuedLocked(job *Job) {
	if err := job.transition(StateFailed, e.now()); err != nil {
		logging.Error("%v", err)
	}
	delete(e.jobs, job.ID)
	job.cancel()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for job := range e.queue {
		metrics.JobQueueDepth.Set(float64(len(e.queue)))
		e.run(job)
	}
}

// claim moves job to running. It returns false for jobs cancelled while queued.
func (e *Executor) claim(job *Job) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if job.state != StateQueued {
		return false
	}
	if err := job.transition(StateRunning, e.now()); err != nil {
		logging.Error("%v", err)
		return false
	}
	e.running++
	return true
}

func (e *Executor) run(job *Job) {
	if !e.claim(job) {
		return
	}

	p := job.Plan
	op := string(p.Operation)
	metrics.JobQueueWait.WithLabelValues(op).Observe(job.startedAt.Sub(job.submittedAt).Seconds())
	metrics.JobsInProgress.Inc()
	logging.Info("Job %s started: %s", job.ID, p)

	err := e.execute(job)

	metrics.JobsInProgress.Dec()
	metrics.JobDuration.WithLabelValues(op).Observe(e.now().Sub(job.startedAt).Seconds())

	result := Result{JobID: job.ID}
	if err == nil {
		var artifact assets.Artifact
		artifact, err = e.registrar.Adopt(p.OutputName)
		if err == nil {
			result.Artifact = &artifact
		} else {
			err = apperr.Engine("job "+job.ID, fmt.Errorf("engine produced no usable output: %w", err), "")
		}
	}
	if err != nil {
		discard(p.Output)
		result.Err = err
	}

	e.mu.Lock()
	e.running--
	next := StateSucceeded
	if result.Err != nil {
		next = StateFailed
	}
	if terr := job.transition(next, e.now()); terr != nil {
		logging.Error("%v", terr)
	}
	delete(e.jobs, job.ID)
	e.mu.Unlock()

	e.deliver(job, result)
}

// execute runs the engine for job. The returned error is already classified.
func (e *Executor) execute(job *Job) error {
	p := job.Plan
	ctx := job.ctx
	if e.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.JobTimeout)
		defer cancel()
	}

	listFile := ""
	if p.ConcatList {
		listFile = filepath.Join(filepath.Dir(p.Output), ".concat-"+job.ID+".txt")
		if err := os.WriteFile(listFile, p.ConcatListing(), 0o644); err != nil {
			return apperr.Internal("job "+job.ID, err)
		}
		defer func() {
			if err := os.Remove(listFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logging.Warn("Failed to remove concat list %s: %v", listFile, err)
			}
		}()
	}

	tail := engine.NewTailBuffer(e.cfg.StderrTail)
	cmd := engine.Command(ctx, e.cfg.Binary, p.Args(listFile), tail)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	switch {
	case job.ctx.Err() != nil:
		return apperr.Cancelled("job "+job.ID, "cancelled while running")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperr.Engine("job "+job.ID, fmt.Errorf("timed out after %s: %w", e.cfg.JobTimeout, err), tail.String())
	default:
		return apperr.Engine("job "+job.ID, err, tail.String())
	}
}

// deliver publishes the result exactly once and records job metrics.
func (e *Executor) deliver(job *Job, result Result) {
	job.result = result
	close(job.done)
	job.cancel()

	op := string(job.Plan.Operation)
	status := "succeeded"
	switch {
	case errors.Is(result.Err, apperr.ErrCancelled):
		status = "cancelled"
	case result.Err != nil:
		status = "failed"
	}
	metrics.JobsTotal.WithLabelValues(op, status).Inc()

	switch status {
	case "succeeded":
		logging.Info("Job %s succeeded: %s (%d bytes)", job.ID, result.Artifact.Name, result.Artifact.Size)
	case "cancelled":
		logging.Info("Job %s cancelled", job.ID)
	default:
		if detail := apperr.DetailOf(result.Err); detail != "" {
			logging.Warn("Job %s failed: %v\n%s", job.ID, result.Err, detail)
		} else {
			logging.Warn("Job %s failed: %v", job.ID, result.Err)
		}
	}
}

// discard removes a partial or unregistered output.
func discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Failed to remove output %s: %v", path, err)
	}
}
