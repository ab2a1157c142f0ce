package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeValidation, "test error", 400)
	expected := "VALIDATION_ERROR: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeTransportFailure, "wrapped error", 503)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}

	// Check error message includes cause
	errorMsg := err.Error()
	if !contains(errorMsg, "original error") {
		t.Errorf("Error() should contain cause, got: %v", errorMsg)
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeValidation, "test error", 400)
	err.WithContext("field", "value").WithContext("count", 42)

	if err.Context["field"] != "value" {
		t.Errorf("Context[field] = %v, want 'value'", err.Context["field"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestNewUnknownResponseError(t *testing.T) {
	err := NewUnknownResponseError(418, "unexpected response")
	if err.Code != ErrCodeUnknownResponse {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownResponse)
	}
	if err.Context["response_code"] != 418 {
		t.Errorf("Context[response_code] = %v, want 418", err.Context["response_code"])
	}
}

func TestNewInvalidRemoteStateError(t *testing.T) {
	err := NewInvalidRemoteStateError("paused")
	if err.Code != ErrCodeInvalidRemoteState {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidRemoteState)
	}
	if err.Context["state"] != "paused" {
		t.Errorf("Context[state] = %v, want 'paused'", err.Context["state"])
	}
}

func TestNewUnauthorizedError(t *testing.T) {
	err := NewUnauthorizedError("bad key")
	if err.Code != ErrCodeUnauthorized {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnauthorized)
	}
	if err.HTTPStatus != 401 {
		t.Errorf("HTTPStatus = %v, want 401", err.HTTPStatus)
	}
}

func TestGetAppError_Wrapped(t *testing.T) {
	appErr := NewTimeoutError("deadline exceeded while polling")
	wrapped := fmt.Errorf("start failed: %w", appErr)

	got := GetAppError(wrapped)
	if got == nil {
		t.Fatal("GetAppError returned nil for wrapped AppError")
	}
	if got.Code != ErrCodeTimeout {
		t.Errorf("Code = %v, want %v", got.Code, ErrCodeTimeout)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewTransportFailureError(errors.New("conn refused")))
	if !IsCode(err, ErrCodeTransportFailure) {
		t.Error("IsCode should match TRANSPORT_FAILURE through the chain")
	}
	if IsCode(err, ErrCodeTimeout) {
		t.Error("IsCode should not match TIMEOUT")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
