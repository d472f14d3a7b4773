package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrNotFound is returned when a lookup by hash or address has no result.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed addresses, hashes and filters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// TransportError is a non-2xx response or a failure to reach the API at all.
type TransportError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("transport %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a well-formed response whose status marker reports failure.
type APIError struct {
	Module  string
	Action  string
	Class   ErrorClass
	Status  string
	Code    int // JSON-RPC error code, proxy module only
	Message string
	Result  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Result != "" {
		return fmt.Sprintf("api %s error (%s/%s): %s: %s", e.Class, e.Module, e.Action, e.Message, e.Result)
	}
	if e.Code != 0 {
		return fmt.Sprintf("api %s error (%s/%s): %s (code %d)", e.Class, e.Module, e.Action, e.Message, e.Code)
	}
	return fmt.Sprintf("api %s error (%s/%s): %s", e.Class, e.Module, e.Action, e.Message)
}

// classOf returns the error class carried by err, or "" for errors that are
// not request failures.
func classOf(err error) ErrorClass {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Class
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx means the request itself is wrong
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		return true
	case ErrorClassNetwork:
		return true
	case ErrorClassAPI:
		// The explorer answered; asking again gets the same answer
		return false
	default:
		return false
	}
}
