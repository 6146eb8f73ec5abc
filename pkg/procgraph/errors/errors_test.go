package errors

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHTTPError_Error tests message formatting.
func TestHTTPError_Error(t *testing.T) {
	e := &HTTPError{StatusCode: 429, Endpoint: "/result"}
	assert.Equal(t, "HTTP 429 at /result", e.Error())

	e.Message = "rate limit exceeded"
	assert.Equal(t, "HTTP 429 at /result: rate limit exceeded", e.Error())

	e.Code = "RateLimitExceeded"
	assert.Equal(t, "HTTP 429 at /result: RateLimitExceeded: rate limit exceeded", e.Error())
}

// TestJobFailedError_Error tests message formatting.
func TestJobFailedError_Error(t *testing.T) {
	e := &JobFailedError{JobID: "j-1"}
	assert.Equal(t, "job j-1 failed", e.Error())

	e.Message = "out of memory"
	assert.Equal(t, "job j-1 failed: out of memory", e.Error())
}

// TestCategorize tests status-code and error-kind categorization.
func TestCategorize(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryPermanent},
		{"429", &HTTPError{StatusCode: 429}, CategoryTransient},
		{"502", &HTTPError{StatusCode: 502}, CategoryTransient},
		{"500", &HTTPError{StatusCode: 500}, CategoryTransient},
		{"401", &HTTPError{StatusCode: 401}, CategoryPermanent},
		{"400", &HTTPError{StatusCode: 400}, CategoryPermanent},
		{"404", &HTTPError{StatusCode: 404}, CategoryPermanent},
		{"wrapped http", fmt.Errorf("request: %w", &HTTPError{StatusCode: 503}), CategoryTransient},
		{"job failure", &JobFailedError{JobID: "j-1"}, CategoryPermanent},
		{"context canceled", context.Canceled, CategoryPermanent},
		{"deadline exceeded", context.DeadlineExceeded, CategoryPermanent},
		{"connection-level", io.ErrUnexpectedEOF, CategoryTransient},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.err))
		})
	}
}

// TestIsRetryable tests the retry predicate.
func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&HTTPError{StatusCode: 503}))
	assert.False(t, IsRetryable(&HTTPError{StatusCode: 403}))
}

// TestCategory_String tests the names.
func TestCategory_String(t *testing.T) {
	assert.Equal(t, "transient", CategoryTransient.String())
	assert.Equal(t, "permanent", CategoryPermanent.String())
	assert.Equal(t, "unknown", Category(99).String())
}
