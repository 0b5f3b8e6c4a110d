package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to it, most
// notably the HTTP layer when choosing a status code.
type Kind int

const (
	// KindInternal is an unexpected failure (I/O, programming error).
	KindInternal Kind = iota
	// KindNotFound means a referenced asset, artifact or job does not exist.
	KindNotFound
	// KindInvalidName means an identifier was malformed or tried to escape its directory.
	KindInvalidName
	// KindValidation means an edit request was malformed or inconsistent.
	KindValidation
	// KindEngine means the media engine failed or produced unusable output.
	KindEngine
	// KindResourceExhausted means the job backlog is full.
	KindResourceExhausted
	// KindCancelled means a job was discarded or terminated before completing.
	KindCancelled
)

// String returns the string representation of a kind
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindNotFound:
		return "not_found"
	case KindInvalidName:
		return "invalid_name"
	case KindValidation:
		return "validation"
	case KindEngine:
		return "engine"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is the error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Detail carries diagnostic text such as the tail of the engine's stderr.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, apperr.ErrNotFound) works for any NotFound error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidName       = &Error{Kind: KindInvalidName}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrEngine            = &Error{Kind: KindEngine}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
	ErrCancelled         = &Error{Kind: KindCancelled}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailOf returns the diagnostic detail of the first *Error in err's chain.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}

func newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(op, format string, args ...interface{}) *Error {
	return newf(KindNotFound, op, format, args...)
}

// InvalidName builds a KindInvalidName error.
func InvalidName(op, format string, args ...interface{}) *Error {
	return newf(KindInvalidName, op, format, args...)
}

// Validation builds a KindValidation error.
func Validation(op, format string, args ...interface{}) *Error {
	return newf(KindValidation, op, format, args...)
}

// ResourceExhausted builds a KindResourceExhausted error.
func ResourceExhausted(op, format string, args ...interface{}) *Error {
	return newf(KindResourceExhausted, op, format, args...)
}

// Cancelled builds a KindCancelled error.
func Cancelled(op, format string, args ...interface{}) *Error {
	return newf(KindCancelled, op, format, args...)
}

// Engine wraps a media engine failure together with its diagnostic output.
func Engine(op string, err error, detail string) *Error {
	return &Error{Kind: KindEngine, Op: op, Message: "media engine failed", Detail: detail, Err: err}
}

// Internal wraps an unexpected error.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}
