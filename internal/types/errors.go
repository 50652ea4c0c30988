package types

import (
	"errors"
	"fmt"
)

// ErrDisposed is returned for any operation attempted after shutdown.
var ErrDisposed = errors.New("service disposed")

// ValidationError indicates bad caller input (empty ingredient list,
// malformed image). Never retried, surfaced immediately.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NetworkErrorKind classifies remote call failures
type NetworkErrorKind string

const (
	NetworkNoConnection NetworkErrorKind = "no_connection"
	NetworkTimeout      NetworkErrorKind = "timeout"
	NetworkRateLimited  NetworkErrorKind = "rate_limited"
	NetworkServerError  NetworkErrorKind = "server_error"
	NetworkAuthFailure  NetworkErrorKind = "auth_failure"
)

// NetworkError wraps a failed remote call with its retry classification
type NetworkError struct {
	Kind    NetworkErrorKind
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("network error (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("network error (%s)", e.Kind)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether a bounded retry may succeed. Auth failures
// and missing connectivity never recover within one request's lifetime.
func (e *NetworkError) Retryable() bool {
	switch e.Kind {
	case NetworkTimeout, NetworkRateLimited, NetworkServerError:
		return true
	default:
		return false
	}
}

// ProcessingErrorKind classifies upstream AI processing failures
type ProcessingErrorKind string

const (
	ProcessingInvalidImage   ProcessingErrorKind = "invalid_image"
	ProcessingNoFoodDetected ProcessingErrorKind = "no_food_detected"
	ProcessingServiceFailure ProcessingErrorKind = "service_failure"
)

// ProcessingError indicates the upstream AI service could not produce a
// usable result for a well-formed request
type ProcessingError struct {
	Kind    ProcessingErrorKind
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("processing error (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("processing error (%s)", e.Kind)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// CacheError indicates a cache tier I/O failure. Callers treat it as a
// soft failure: log and proceed as a miss.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s failed: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a NetworkError marked retryable
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable()
	}
	return false
}
