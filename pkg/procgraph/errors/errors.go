// Package errors provides the transport-facing error taxonomy: typed
// errors for backend responses and categorization that tells callers
// whether retrying can help. The construction core has its own typed
// errors; this package only concerns talking to a backend.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: rate limits, gateway timeouts, dropped connections.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: authentication failures, malformed process graphs.
	CategoryPermanent
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// HTTPError represents a non-2xx backend response.
type HTTPError struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Endpoint is the request path.
	Endpoint string
	// Code is the backend's machine-readable error code, if any.
	Code string
	// Message is the backend's error message, if any.
	Message string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("HTTP %d at %s: %s: %s", e.StatusCode, e.Endpoint, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	default:
		return fmt.Sprintf("HTTP %d at %s", e.StatusCode, e.Endpoint)
	}
}

// JobFailedError indicates a batch job reached a terminal error state
// on the backend.
type JobFailedError struct {
	// JobID is the backend job identifier.
	JobID string
	// Message is the backend's failure description, if available.
	Message string
}

// Error implements the error interface.
func (e *JobFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
	}
	return fmt.Sprintf("job %s failed", e.JobID)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryPermanent
	}

	var jobErr *JobFailedError
	if errors.As(err, &jobErr) {
		return CategoryPermanent
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 429, 502, 503, 504:
			return CategoryTransient
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient
			}
			return CategoryPermanent
		}
	}

	// Unrecognized errors are treated as transient: they are usually
	// connection-level failures surfaced by the HTTP client.
	return CategoryTransient
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
