// Package errors provides standardized error handling for the agent pipeline.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeJudgmentInvalid    ErrorCode = "JUDGMENT_INVALID"

	ErrCodeWeatherServiceUnavailable ErrorCode = "WEATHER_SERVICE_UNAVAILABLE"
	ErrCodeLocationNotFound          ErrorCode = "LOCATION_NOT_FOUND"
	ErrCodeNoLocationSpecified       ErrorCode = "NO_LOCATION_SPECIFIED"
	ErrCodeWeatherRequestFailed      ErrorCode = "WEATHER_REQUEST_FAILED"

	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodePipelineFailed   ErrorCode = "PIPELINE_FAILED"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewBackendUnavailableError creates a retryable reasoning-backend error.
func NewBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendUnavailable,
		Message:   "Reasoning backend unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendTimeoutError creates a retryable backend timeout error.
func NewBackendTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendTimeout,
		Message:   "Reasoning backend timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewJudgmentInvalidError creates a non-retryable error for a backend reply
// that failed schema validation.
func NewJudgmentInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJudgmentInvalid,
		Message:   "Backend judgment failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherServiceUnavailableError creates a retryable weather provider error.
func NewWeatherServiceUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherServiceUnavailable,
		Message:   "Weather service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLocationNotFoundError creates a non-retryable geocoding error.
func NewLocationNotFoundError(location string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocationNotFound,
		Message:   "Location not found",
		Details:   fmt.Sprintf("location: %s", location),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoLocationSpecifiedError creates a non-retryable planning error.
func NewNoLocationSpecifiedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoLocationSpecified,
		Message:   "No location specified for weather query",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeatherRequestFailedError creates a retryable weather request error.
func NewWeatherRequestFailedError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherRequestFailed,
		Message:   "Weather API request failed",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelineFailedError creates a non-retryable top-level pipeline error.
func NewPipelineFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineFailed,
		Message:   "Query processing failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Status Mapping
// ==========================

// HTTPStatus maps an internal error code to the HTTP status the API returns.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeLocationNotFound:
		return http.StatusNotFound
	case ErrCodeBackendUnavailable,
		ErrCodeWeatherServiceUnavailable,
		ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeBackendTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryable reports whether err is a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BACKEND") || strings.Contains(codeStr, "JUDGMENT"):
		return "REASONING"
	case strings.Contains(codeStr, "WEATHER") || strings.Contains(codeStr, "LOCATION"):
		return "WEATHER"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "REQUEST"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
