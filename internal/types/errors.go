package types

import (
	"fmt"
	"net/http"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All packages MUST use these constants instead of hardcoded strings.
const (
	// Upstream providers (pollution/weather APIs)
	ErrCodeUpstreamTransport ErrorCode = "upstream_transport"
	ErrCodeUpstreamSchema    ErrorCode = "upstream_schema"

	// Feature store
	ErrCodeStoreEmpty    ErrorCode = "store_empty"
	ErrCodeStoreInternal ErrorCode = "store_internal"

	// Training and model registry
	ErrCodeInsufficientData   ErrorCode = "training_insufficient_data"
	ErrCodeModelNotRegistered ErrorCode = "model_not_registered"
	ErrCodeSchemaMismatch     ErrorCode = "model_schema_mismatch"
	ErrCodeRegistryIO         ErrorCode = "registry_io"

	// Input validation (API surface and flags)
	ErrCodeValidationInvalidInput ErrorCode = "validation_invalid_input"

	// Configuration
	ErrCodeConfigInvalid ErrorCode = "config_invalid"

	// Catch-all
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected"
)

// HTTPStatus maps an error code to the HTTP status returned by the
// prediction API surface.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeValidationInvalidInput:
		return http.StatusBadRequest
	case ErrCodeStoreEmpty:
		return http.StatusNotFound
	case ErrCodeModelNotRegistered:
		return http.StatusServiceUnavailable
	case ErrCodeUpstreamTransport, ErrCodeUpstreamSchema:
		return http.StatusBadGateway
	case ErrCodeSchemaMismatch, ErrCodeInsufficientData, ErrCodeRegistryIO,
		ErrCodeStoreInternal, ErrCodeConfigInvalid, ErrCodeInternalUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the application error type carried across package boundaries.
// It wraps an underlying cause (if any) together with a stable machine
// readable code and a human readable message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status for the error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError constructs an AppError with the given code, message and cause.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
