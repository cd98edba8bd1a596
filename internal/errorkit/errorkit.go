// Package errorkit provides the engine's single error taxonomy, collapsing
// the many ad-hoc error styles a growing codebase tends to accumulate into
// the seven kinds spec §7 names. Every component boundary (store, gateway,
// search phase, task handler) returns an *Error instead of a bare error so
// the HTTP layer and the task queue can make uniform retry/response
// decisions.
package errorkit

import (
	"errors"
	"fmt"
)

// Kind is the abstract error category from spec §7.
type Kind string

const (
	Validation Kind = "VALIDATION" // bad input shape or constraint -> 422
	NotFound   Kind = "NOT_FOUND"  // entity missing -> 404
	Conflict   Kind = "CONFLICT"   // forbidden state transition -> 409
	Upstream   Kind = "UPSTREAM"   // gateway failed (fetch/embedding/reranker)
	Timeout    Kind = "TIMEOUT"    // deadline exceeded
	Internal   Kind = "INTERNAL"   // invariant violation -> 500
	Degraded   Kind = "DEGRADED"   // partial failure of an N-way parallel step
)

// Error is the engine-wide error type.
type Error struct {
	Kind      Kind
	Code      string // short machine-readable code, e.g. "taxonomy_cycle"
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a new Error of the given kind.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// WithRetryable marks the error as eligible for queue backoff retry (transient
// Upstream/Timeout failures).
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// As extracts an *Error from a generic error chain, defaulting to Internal
// when the chain carries no errorkit.Error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Code: "unclassified", Message: err.Error(), Cause: err}
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, "not_found", fmt.Sprintf(format, args...))
}

func Validationf(format string, args ...any) *Error {
	return New(Validation, "validation", fmt.Sprintf(format, args...))
}

func Conflictf(code, format string, args ...any) *Error {
	return New(Conflict, code, fmt.Sprintf(format, args...))
}

func Internalf(format string, args ...any) *Error {
	return New(Internal, "internal", fmt.Sprintf(format, args...))
}
