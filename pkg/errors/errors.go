package errors

import (
	"errors"
	"fmt"
	"net/http"

	"telequal/internal/core/domain"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidSample      ErrorCode = "INVALID_SAMPLE"
	ErrCodeNoData             ErrorCode = "NO_DATA"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodePersistence        ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Context    map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Context:    make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
		Context:    make(map[string]interface{}),
	}
}

// Common error constructors
func NewInvalidSampleError(message string) *AppError {
	return NewAppError(ErrCodeInvalidSample, message, http.StatusBadRequest)
}

func NewNoDataError(sessionID string) *AppError {
	return NewAppError(ErrCodeNoData, fmt.Sprintf("no samples recorded for session %s", sessionID), http.StatusNotFound)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewTimeoutError(message string) *AppError {
	return NewAppError(ErrCodeTimeout, message, http.StatusGatewayTimeout)
}

func NewPersistenceError(message string) *AppError {
	return NewAppError(ErrCodePersistence, message, http.StatusServiceUnavailable)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// FromDomain maps domain sentinel errors onto HTTP-facing AppErrors so
// handlers can answer with the right status without inspecting causes.
func FromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidSample):
		return WrapError(err, ErrCodeInvalidSample, "invalid metric sample", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoData):
		return WrapError(err, ErrCodeNoData, "no samples recorded for session", http.StatusNotFound)
	case errors.Is(err, domain.ErrReportNotFound):
		return WrapError(err, ErrCodeNotFound, "session report not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrSessionNotFound):
		return WrapError(err, ErrCodeNotFound, "session not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrTimeout):
		return WrapError(err, ErrCodeTimeout, "query timed out", http.StatusGatewayTimeout)
	case errors.Is(err, domain.ErrPersistence):
		return WrapError(err, ErrCodePersistence, "persistence store unavailable", http.StatusServiceUnavailable)
	default:
		return WrapError(err, ErrCodeInternal, "internal error", http.StatusInternalServerError)
	}
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
