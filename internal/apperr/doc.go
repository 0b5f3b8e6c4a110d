// Package apperr defines the error taxonomy shared by the asset stores, the
// command builder, the job executor and the HTTP handlers.
//
// Every error that crosses a package boundary is an *Error carrying a Kind.
// Callers test for a kind with errors.Is against the package sentinels:
//
//	if errors.Is(err, apperr.ErrNotFound) {
//	    // 404
//	}
//
// Validation, not-found and invalid-name errors are detected before a job is
// queued and are returned synchronously. Engine errors are only observed after
// a job has run and are delivered through the job handle.
package apperr
