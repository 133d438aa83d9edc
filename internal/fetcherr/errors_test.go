package fetcherr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFallbackEligible(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transport", err: Transport("http://a", errors.New("connection refused")), want: true},
		{name: "timeout", err: Transport("http://a", context.DeadlineExceeded), want: true},
		{name: "server error", err: Status("http://a", 503, nil), want: true},
		{name: "not found", err: Status("http://a", 404, nil), want: false},
		{name: "forbidden", err: Status("http://a", 403, nil), want: false},
		{name: "redirect", err: Redirect("http://a", 302, http.Header{"Location": {"http://b"}}), want: false},
		{name: "invalid url", err: InvalidURL("nope"), want: false},
		{name: "circuit open", err: CircuitOpen("http://a", "a"), want: true},
		{name: "wrapped server error", err: fmt.Errorf("fetch: %w", Status("http://a", 500, nil)), want: true},
		{name: "foreign error", err: errors.New("boom"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFallbackEligible(tt.err))
		})
	}
}

func TestIsUpstreamFailure_IgnoresCircuitOpen(t *testing.T) {
	assert.False(t, IsUpstreamFailure(CircuitOpen("http://a", "a")))
	assert.True(t, IsUpstreamFailure(Status("http://a", 500, nil)))
	assert.False(t, IsUpstreamFailure(Status("http://a", 404, nil)))
}

func TestTransport_TimeoutClassification(t *testing.T) {
	err := Transport("http://a", fmt.Errorf("get: %w", context.DeadlineExceeded))
	assert.Equal(t, TypeTimeout, err.Type)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorsIs_MatchesByType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", CircuitOpen("http://a", "a"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.NotErrorIs(t, Status("http://a", 500, nil), ErrCircuitOpen)
}

func TestRedirect_Location(t *testing.T) {
	err := Redirect("http://a", 301, http.Header{"Location": {"http://b/"}})
	assert.Equal(t, "http://b/", err.Location())
	assert.Contains(t, err.Error(), "Service http://a responded with status code 301")
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 404, StatusCode(Status("http://a", 404, nil)))
	assert.Equal(t, 500, StatusCode(errors.New("boom")))
	assert.Equal(t, 503, StatusCode(CircuitOpen("http://a", "a")))
}
