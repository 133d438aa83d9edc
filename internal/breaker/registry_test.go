package breaker

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"go-reliable-fetch/internal/metrics"
)

func TestRegistry_KeyFor(t *testing.T) {
	withPath := NewRegistry(Config{}, true, nil, nil)
	hostOnly := NewRegistry(Config{}, false, nil, nil)

	tests := []struct {
		url      string
		withPath string
		hostOnly string
	}{
		{url: "http://a.com/x/y?q=1", withPath: "a.com/x/y", hostOnly: "a.com"},
		{url: "https://a.com:8443/", withPath: "a.com:8443/", hostOnly: "a.com:8443"},
		{url: "http://a.com", withPath: "a.com", hostOnly: "a.com"},
		{url: "cache", withPath: "", hostOnly: ""},
		{url: "::not a url", withPath: "", hostOnly: ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.withPath, withPath.KeyFor(tt.url))
			assert.Equal(t, tt.hostOnly, hostOnly.KeyFor(tt.url))
		})
	}
}

func TestRegistry_GetIsLazyAndStable(t *testing.T) {
	r := NewRegistry(Config{}, true, clock.NewMock(), zaptest.NewLogger(t))

	assert.Empty(t, r.States())

	first := r.Get("a.com/x")
	second := r.Get("a.com/x")
	other := r.Get("b.com/x")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Len(t, r.States(), 2)
}

func TestRegistry_PublishesState(t *testing.T) {
	mock := clock.NewMock()
	r := NewRegistry(Config{Window: 5 * time.Second, VolumeThreshold: 3, ErrorThreshold: 20}, true, mock, zaptest.NewLogger(t))

	key := "metrics.example/registry"
	b := r.Get(key)
	assert.Equal(t, float64(StateClosed), testutil.ToFloat64(metrics.BreakerState.WithLabelValues(key)))

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateOpen, r.States()[key])
	assert.Equal(t, float64(StateOpen), testutil.ToFloat64(metrics.BreakerState.WithLabelValues(key)))

	mock.Add(5 * time.Second)
	b.Allow()
	assert.Equal(t, float64(StateHalfOpen), testutil.ToFloat64(metrics.BreakerState.WithLabelValues(key)))
}
