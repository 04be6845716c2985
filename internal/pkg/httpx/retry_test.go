package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusErr struct{ code int }

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	assert.True(t, IsRetryableHTTPStatus(408))
	assert.True(t, IsRetryableHTTPStatus(429))
	assert.True(t, IsRetryableHTTPStatus(500))
	assert.True(t, IsRetryableHTTPStatus(503))
	assert.False(t, IsRetryableHTTPStatus(200))
	assert.False(t, IsRetryableHTTPStatus(400))
	assert.False(t, IsRetryableHTTPStatus(404))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(statusErr{code: 503}))
	assert.False(t, IsRetryableError(statusErr{code: 401}))
	assert.False(t, IsRetryableError(errors.New("plain failure")))
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"3"}}}
	assert.Equal(t, 3*time.Second, RetryAfterDuration(resp, time.Second, 10*time.Second))

	// Capped at max.
	resp = &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	assert.Equal(t, 10*time.Second, RetryAfterDuration(resp, time.Second, 10*time.Second))

	assert.Equal(t, time.Second, RetryAfterDuration(nil, time.Second, 10*time.Second))
}

func TestBackoff(t *testing.T) {
	assert.Zero(t, Backoff(0, time.Minute, 3))

	// Jitter is +/- 20% of the exponential value.
	for attempt, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		got := Backoff(time.Second, 30*time.Second, attempt)
		assert.GreaterOrEqual(t, got, time.Duration(float64(want)*0.8)-time.Millisecond, "attempt %d", attempt)
		assert.LessOrEqual(t, got, time.Duration(float64(want)*1.2)+time.Millisecond, "attempt %d", attempt)
	}

	// Large attempts clamp at max.
	got := Backoff(time.Second, 8*time.Second, 10)
	assert.LessOrEqual(t, got, time.Duration(float64(8*time.Second)*1.2)+time.Millisecond)
}
