package connect

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by this package wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	ErrTransportFailure         = errors.New("transport failure")
	ErrServerReported           = errors.New("server reported error")
	ErrUnexpectedStatus         = errors.New("unexpected status")
	ErrTaskTimeout              = errors.New("task timeout")
	ErrTaskAborted              = errors.New("task aborted")
	ErrTaskFailed               = errors.New("task failed")
	ErrModeConflict             = errors.New("app mode conflict")
	ErrAmbiguousServerSelection = errors.New("ambiguous server selection")
)

// Error is a domain error with a human-readable message and an optional cause.
type Error struct {
	Kind    error
	Message string
	// Status and Reason are set when the error comes from a server answer.
	Status int
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// NewError builds an Error of the given kind.
func NewError(kind error, cause error, format string, a ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
		Cause:   cause,
	}
}
