package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode categorizes a failure the way callers need to react to it:
// pre-flight validation, the three remote response classes, connection-level
// failures, protocol mismatches and poll deadlines are all distinct.
type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeUnprocessableEntity ErrorCode = "UNPROCESSABLE_ENTITY"
	ErrCodeUnknownResponse     ErrorCode = "UNKNOWN_RESPONSE"
	ErrCodeTransportFailure    ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeInvalidRemoteState  ErrorCode = "INVALID_REMOTE_STATE"
	ErrCodeTimeout             ErrorCode = "TIMEOUT"
	ErrCodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
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
func NewValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func NewUnprocessableEntityError(message string) *AppError {
	return NewAppError(ErrCodeUnprocessableEntity, message, http.StatusUnprocessableEntity)
}

// NewUnknownResponseError reports a response code outside the set this client
// classifies; the remote code travels in the error context for diagnostics.
func NewUnknownResponseError(code int, message string) *AppError {
	return NewAppError(ErrCodeUnknownResponse, message, http.StatusBadGateway).
		WithContext("response_code", code)
}

func NewTransportFailureError(err error) *AppError {
	return WrapError(err, ErrCodeTransportFailure, "transport failure", http.StatusServiceUnavailable)
}

func NewInvalidRemoteStateError(state string) *AppError {
	return NewAppError(ErrCodeInvalidRemoteState, fmt.Sprintf("remote service returned unknown state %q", state), http.StatusBadGateway).
		WithContext("state", state)
}

func NewTimeoutError(message string) *AppError {
	return NewAppError(ErrCodeTimeout, message, http.StatusGatewayTimeout)
}

func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrCodeConfiguration, message, http.StatusInternalServerError)
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	// Try to unwrap
	type unwrapper interface {
		Unwrap() error
	}

	if u, ok := err.(unwrapper); ok {
		return GetAppError(u.Unwrap())
	}

	return nil
}
