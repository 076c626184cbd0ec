// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/indusense/testgen/internal/jobs"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/provider"
	"github.com/indusense/testgen/internal/render"
	"github.com/indusense/testgen/internal/storage"
	"github.com/indusense/testgen/internal/validation"
)

// APIError represents a structured API error response
type APIError struct {
	Status   int      `json:"-"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Details  string   `json:"details,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewUnprocessableError creates a 422 error carrying project validation findings
func NewUnprocessableError(message string, errs, warnings []string) *APIError {
	return &APIError{
		Status:   http.StatusUnprocessableEntity,
		Code:     "INVALID_PROJECT",
		Message:  message,
		Errors:   errs,
		Warnings: warnings,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewBadGatewayError creates a 502 error for a failed generation backend
func NewBadGatewayError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadGateway,
		Code:    "GENERATION_FAILED",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromDomainError maps errors from the generation pipeline to API errors.
func FromDomainError(err error) *APIError {
	var apiErr *APIError
	var verr *validation.Error

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		return NewUnprocessableError("project failed validation", verr.Errors, verr.Warnings)
	case errors.Is(err, parser.ErrProjectLoad):
		return NewBadRequestError("could not load project", err)
	case errors.Is(err, storage.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, prompts.ErrUnknownVersion):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, provider.ErrUnknownProvider):
		return NewBadRequestError("unknown provider", err)
	case errors.Is(err, provider.ErrMissingCredential):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, provider.ErrGenerationFailed):
		return NewBadGatewayError("generation failed", err)
	case errors.Is(err, jobs.ErrShuttingDown):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, render.ErrRender):
		return NewInternalError("render failed", err)
	default:
		return NewInternalError("unexpected error", err)
	}
}

// ErrorHandler returns the Echo error handler. Details of unexpected
// errors are only exposed when showDetails is set.
// Usage: e.HTTPErrorHandler = api.ErrorHandler(cfg.Environment == "development")
func ErrorHandler(showDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if showDetails {
				apiErr.Details = err.Error()
			}
		}

		if !c.Response().Committed {
			_ = c.JSON(apiErr.Status, apiErr)
		}
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
