// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeStatusTransition    = "ILLEGAL_STATUS_TRANSITION"
	CodeAllocationExhausted = "ALLOCATION_EXHAUSTED"
	CodeRenderingFailure    = "RENDERING_FAILURE"
	CodeMissingRecipient    = "MISSING_RECIPIENT"

	// Generation adapter contract violations
	CodeInvalidPromptInput        = "INVALID_PROMPT_INPUT"
	CodeMalformedGenerationOutput = "MALFORMED_GENERATION_OUTPUT"

	// Mail transport failures (502)
	CodeDeliveryFailure = "DELIVERY_FAILURE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, attempt counts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewAllocationExhausted is returned when the numbering allocator cannot find a
// free document number within the bounded attempt count. Retryable by the caller.
func NewAllocationExhausted(scope string, attempts int) *AppError {
	return &AppError{
		Code:       CodeAllocationExhausted,
		Message:    "Could not allocate a unique document number",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"scope": scope, "attempts": attempts},
	}
}

// NewRenderingFailure is returned when a document cannot be rendered to an artifact.
func NewRenderingFailure(message string) *AppError {
	return &AppError{
		Code:       CodeRenderingFailure,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewMissingRecipient is returned when delivery is requested for a document
// without a recipient email address.
func NewMissingRecipient(documentID any) *AppError {
	return &AppError{
		Code:       CodeMissingRecipient,
		Message:    "Document has no recipient email address",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"document_id": documentID},
	}
}

// NewInvalidPromptInput is returned when generation is requested with an
// incomplete or ill-typed prompt payload.
func NewInvalidPromptInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidPromptInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMalformedGenerationOutput is returned when the generation capability
// responds with text that does not match the declared output shape.
func NewMalformedGenerationOutput(message string) *AppError {
	return &AppError{
		Code:       CodeMalformedGenerationOutput,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewDeliveryFailure wraps a mail transport error. Eligible for caller retry.
func NewDeliveryFailure(err error) *AppError {
	return &AppError{
		Code:       CodeDeliveryFailure,
		Message:    "Mail transport failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks if error carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}
