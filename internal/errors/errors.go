// Package errors provides coded domain errors for the Zettel API.
//
// Services return these errors and the HTTP layer turns the code into a
// status:
//
//	if used {
//	    return errors.AlreadyExists("email already in use")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // 404
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard library helpers, so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Code is a machine-readable error code, sent to clients as is.
type Code string

// Error codes.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
)

var statusByCode = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeConflict:           http.StatusConflict,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeValidation:         http.StatusBadRequest,
}

// HTTPStatus returns the status for the code. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a domain error. Message is safe to show to the client; the cause
// is for logs only.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// New creates an error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates an error with the given code that keeps err as its cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code, so sentinels match errors built
// by the constructors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy carrying details, such as per-field messages.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrAlreadyExists      = New(CodeAlreadyExists, "already exists")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrValidation         = New(CodeValidation, "validation error")
	ErrConflict           = New(CodeConflict, "conflict")
	ErrInternal           = New(CodeInternal, "internal error")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
)

// NotFound reports a missing user, note or tag.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// NotFoundf is NotFound with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

// AlreadyExists reports a uniqueness violation, such as a taken email.
func AlreadyExists(msg string) *Error { return New(CodeAlreadyExists, msg) }

// Unauthorized reports a missing, invalid or expired token.
func Unauthorized(msg string) *Error { return New(CodeUnauthorized, msg) }

// InvalidCredentials reports a failed login without saying which part was wrong.
func InvalidCredentials(msg string) *Error { return New(CodeInvalidCredentials, msg) }

// Validation reports rejected input.
func Validation(msg string) *Error { return New(CodeValidation, msg) }

// ValidationWithDetails reports rejected input with per-field messages.
func ValidationWithDetails(msg string, details any) *Error {
	return Validation(msg).WithDetails(details)
}
