package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
	"github.com/zettelapp/zettel-server/internal/store"
)

// codeRateLimited is the error code of 429 responses.
const codeRateLimited = "RATE_LIMITED"

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			// Store errors that reach the API were not translated by a service.
			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				if storeErr.HTTPCode() == http.StatusConflict {
					return &APIError{
						status:  http.StatusConflict,
						Code:    string(domainerrors.CodeConflict),
						Message: storeErr.Message,
					}
				}
				return &APIError{
					status:  http.StatusInternalServerError,
					Code:    string(domainerrors.CodeInternal),
					Message: "internal server error",
				}
			}
		}

		// Request validation failures from huma itself.
		if status == http.StatusUnprocessableEntity {
			return &APIError{
				status:  status,
				Code:    string(domainerrors.CodeValidation),
				Message: message,
				Details: errorDetails(errs),
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// errorDetails maps each huma.ErrorDetail to its message, keyed by location.
func errorDetails(errs []error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			details[d.Location] = d.Message
			continue
		}
		details[err.Error()] = err.Error()
	}
	return details
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return codeRateLimited
	default:
		return string(domainerrors.CodeInternal)
	}
}
