package lead

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a fetch produced no document.
type FailureKind string

// Fetch failure kinds surfaced in logs and metrics.
const (
	FailureNone        FailureKind = ""
	FailureTimeout     FailureKind = "timeout"
	FailureForbidden   FailureKind = "forbidden"
	FailureRateLimited FailureKind = "rate_limited"
	FailureNetwork     FailureKind = "network_error"
)

// Sentinel errors matched by FetchError.Is.
var (
	ErrFetchTimeout     = errors.New("fetch timed out")
	ErrFetchForbidden   = errors.New("fetch forbidden")
	ErrFetchRateLimited = errors.New("fetch rate limited")
	ErrFetchNetwork     = errors.New("fetch network error")
)

// FetchError is returned by fetchers for every failed request.
type FetchError struct {
	Kind       FailureKind
	URL        string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *FetchError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureTimeout:
		return ErrFetchTimeout
	case FailureForbidden:
		return ErrFetchForbidden
	case FailureRateLimited:
		return ErrFetchRateLimited
	case FailureNetwork:
		return ErrFetchNetwork
	default:
		return nil
	}
}

// KindOf returns the failure kind carried by err, or FailureNetwork for
// errors that did not come from a fetcher.
func KindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailureNetwork
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
