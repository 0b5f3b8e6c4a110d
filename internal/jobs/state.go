package jobs

import (
	"context"
	"fmt"
	"time"

	"movie-maker/internal/assets"
	"movie-maker/internal/plan"
)

// State is a job's lifecycle state.
type State string

// Job states. A job moves queued → running → succeeded|failed, or straight
// from queued to failed when it is cancelled before a worker claims it.
const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var transitions = map[State][]State{
	StateQueued:  {StateRunning, StateFailed},
	StateRunning: {StateSucceeded, StateFailed},
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// CanTransition reports whether a job in state s may move to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is one engine run. Fields other than ID and Plan are guarded by the
// owning Executor.
type Job struct {
	ID   string
	Plan *plan.Plan

	state       State
	submittedAt time.Time
	startedAt   time.Time
	finishedAt  time.Time

	// ctx is cancelled by Cancel and Stop; it kills the engine process.
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

func (j *Job) transition(next State, now time.Time) error {
	if !j.state.CanTransition(next) {
		return fmt.Errorf("job %s: invalid transition %s -> %s", j.ID, j.state, next)
	}
	j.state = next
	switch next {
	case StateRunning:
		j.startedAt = now
	case StateSucceeded, StateFailed:
		j.finishedAt = now
	}
	return nil
}

func (j *Job) info() Info {
	return Info{
		ID:          j.ID,
		Operation:   j.Plan.Operation,
		OutputName:  j.Plan.OutputName,
		State:       j.state,
		SubmittedAt: j.submittedAt,
		StartedAt:   j.startedAt,
	}
}

// Info is a snapshot of a job for listings.
type Info struct {
	ID          string
	Operation   plan.Operation
	OutputName  string
	State       State
	SubmittedAt time.Time
	// StartedAt is zero while the job is queued.
	StartedAt time.Time
}

// Result is the outcome of a job. Exactly one of Artifact and Err is set.
type Result struct {
	JobID    string
	Artifact *assets.Artifact
	Err      error
}

// Handle lets a submitter wait for a job's result.
type Handle struct {
	ID  string
	job *Job
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} {
	return h.job.done
}

// Result returns the job's result. It is the zero Result until Done is closed.
func (h *Handle) Result() Result {
	select {
	case <-h.job.done:
		return h.job.result
	default:
		return Result{}
	}
}

// Wait blocks until the job finishes or ctx ends. The job is not affected
// when ctx ends first.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.job.done:
		return h.job.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
