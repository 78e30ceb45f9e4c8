package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a store failure with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so sentinels still match after
// WithCause or WithMessage produced a copy.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
//
// Lookups that find nothing are not errors: they report found == false.
var (
	// ErrAlreadyExists is returned when a uniqueness constraint would be
	// violated (duplicate email, tag already attached to a note).
	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	// ErrTransaction is returned when a transaction cannot begin or commit.
	// Nothing from the transaction was persisted.
	ErrTransaction = &Error{
		Code:    http.StatusInternalServerError,
		Message: "transaction failed",
	}
)
