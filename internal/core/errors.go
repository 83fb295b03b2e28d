package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned across a service boundary unwraps to one
// of these, so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrTransient    = errors.New("transient store failure")
)

// Error carries a user-facing message together with its kind.
// Message is safe to show verbatim; Cause is for logs only.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap lets errors.Is match both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// Transient wraps a store failure behind a generic retry message.
func Transient(msg string, cause error) error {
	return &Error{Kind: ErrTransient, Message: msg, Cause: cause}
}

// Message returns the user-facing text of err. Errors that are not *Error
// get a generic message so internal detail never leaks.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// IsKnown reports whether err already belongs to the taxonomy.
func IsKnown(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
