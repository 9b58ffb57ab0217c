// Package enginerr defines the typed error kinds the workflow engine
// surfaces to its callers and to the job transport. Retriability is a
// property of the error, not of the caller's judgment, so the transport
// can branch on it without string matching.
package enginerr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its handling class.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindNotAuthorized Kind = "NOT_AUTHORIZED"
	KindCycle        Kind = "CYCLE_ERROR"
	KindConfig       Kind = "CONFIG_ERROR"
	KindTransient    Kind = "TRANSIENT_ERROR"
)

// Error is the engine's tagged error type. Callers use errors.As to
// recover the Kind, or call IsRetriable to decide transport behavior.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetriable reports whether the transport should retry the failing
// operation. Only TransientError is retriable; everything else is a
// configuration or authorization problem that a retry cannot fix.
func (e *Error) IsRetriable() bool {
	return e.Kind == KindTransient
}

// NotFound builds a non-retriable "not found" error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NotAuthorized builds a non-retriable ownership-violation error.
func NotAuthorized(format string, args ...any) error {
	return &Error{Kind: KindNotAuthorized, Message: fmt.Sprintf(format, args...)}
}

// Cycle builds a non-retriable cycle-detection error.
func Cycle(format string, args ...any) error {
	return &Error{Kind: KindCycle, Message: fmt.Sprintf(format, args...)}
}

// Config builds a non-retriable configuration error (missing/invalid
// executor config, unknown node type, missing workflowId, ...).
func Config(format string, args ...any) error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// ConfigWrap wraps an underlying cause as a non-retriable config error.
func ConfigWrap(err error, format string, args ...any) error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...), Err: err}
}

// Transient builds a retriable error for network/timeout/5xx/unspecified
// executor failures. The transport's backoff policy applies.
func Transient(format string, args ...any) error {
	return &Error{Kind: KindTransient, Message: fmt.Sprintf(format, args...)}
}

// TransientWrap wraps an underlying cause as a retriable error.
func TransientWrap(err error, format string, args ...any) error {
	return &Error{Kind: KindTransient, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsRetriable reports whether err should be retried by the transport.
// Errors not tagged with our Error type default to retriable, matching
// spec: "all other failures default to retriable."
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.IsRetriable()
	}
	return true
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
