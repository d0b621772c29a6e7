package storage

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAddress     = errors.New("invalid address")
	ErrDecoding           = errors.New("malformed response body")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServerUnavailable  = errors.New("server unavailable")
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// RequestFailedError covers every non-success status code that does not
// map to one of the sentinel errors above. The code is preserved for
// callers that want to branch on it.
type RequestFailedError struct {
	StatusCode int
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// UnknownError wraps transport faults that are neither an HTTP status
// nor a connectivity problem.
type UnknownError struct {
	Cause error
}

func (e *UnknownError) Error() string {
	return "unknown transport error: " + e.Cause.Error()
}

func (e *UnknownError) Unwrap() error {
	return e.Cause
}
