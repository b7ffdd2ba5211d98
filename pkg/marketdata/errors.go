package marketdata

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for API responses.
var (
	// ErrUnauthorized indicates a missing or rejected API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest indicates the API rejected the request parameters.
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited indicates the API throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a server-side failure.
	ErrUnavailable = errors.New("service unavailable")
)

// APIError wraps a failed API call with context.
type APIError struct {
	// Op is the API operation (e.g., "metadata.get_cost").
	Op string

	// Status is the HTTP status code, or 0 for transport failures.
	Status int

	// Message is the server's error detail, if any.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %v: %s", e.Op, e.Status, e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %d %v", e.Op, e.Status, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status to a sentinel error.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrUnavailable
	default:
		return ErrBadRequest
	}
}

// IsRateLimited returns true if the error indicates throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUnauthorized returns true if the error indicates a rejected API key.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
