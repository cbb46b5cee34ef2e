package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an API error for transport mapping and logging.
type ErrorKind string

const (
	// ErrKindValidation marks a malformed or incomplete request
	ErrKindValidation ErrorKind = "validation"
	// ErrKindConflict marks a start request while a job of that kind is active
	ErrKindConflict ErrorKind = "conflict"
	// ErrKindNotFound marks an unknown artifact or image handle
	ErrKindNotFound ErrorKind = "not_found"
	// ErrKindExecution marks a failure raised inside the delegated compute
	ErrKindExecution ErrorKind = "execution"
	// ErrKindStorage marks a filesystem failure during artifact operations
	ErrKindStorage ErrorKind = "storage"
)

// Error is the typed error carried across service boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError returns a validation-kind error
func NewValidationError(msg string) *Error {
	return &Error{Kind: ErrKindValidation, Message: msg}
}

// NewConflictError returns a conflict-kind error
func NewConflictError(msg string) *Error {
	return &Error{Kind: ErrKindConflict, Message: msg}
}

// NewNotFoundError returns a not-found-kind error
func NewNotFoundError(msg string) *Error {
	return &Error{Kind: ErrKindNotFound, Message: msg}
}

// NewExecutionError wraps an engine failure
func NewExecutionError(msg string, err error) *Error {
	return &Error{Kind: ErrKindExecution, Message: msg, Err: err}
}

// NewStorageError wraps a filesystem failure
func NewStorageError(msg string, err error) *Error {
	return &Error{Kind: ErrKindStorage, Message: msg, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to execution for
// untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindExecution
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	return KindOf(err) == ErrKindConflict
}
