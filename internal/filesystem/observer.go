package filesystem

import "sync/atomic"

// Observer receives timings and retry events for store I/O. The metrics
// package implements it; filesystem cannot import metrics directly.
type Observer interface {
	// ObserveOperation records one stat, open, readdir or remove call
	// against a volume ("uploads" or "output").
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

type observerBox struct{ Observer }

var observer atomic.Pointer[observerBox]

// SetObserver installs the observer used by every retry wrapper. Passing nil
// turns recording off, which is what tests get by default.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerBox{o})
}

func observe() Observer {
	if box := observer.Load(); box != nil {
		return box.Observer
	}
	return nil
}
