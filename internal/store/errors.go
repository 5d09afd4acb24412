package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	// sentinel is the package sentinel this error was derived from, so
	// errors.Is still matches after WithMessage/WithCause.
	sentinel *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors derived from the same sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.base() == t.base()
}

func (e *Error) base() *Error {
	if e.sentinel != nil {
		return e.sentinel
	}
	return e
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:     e.Code,
		Message:  msg,
		Err:      e.Err,
		sentinel: e.base(),
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Err:      err,
		sentinel: e.base(),
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrUserNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "user not found",
	}

	ErrTabNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "tab not found",
	}

	ErrSessionNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "session not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}
)
