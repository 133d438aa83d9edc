package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"go-reliable-fetch/internal/breaker"
	"go-reliable-fetch/internal/cache_rules"
	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/interfaces/mock"
	"go-reliable-fetch/internal/models"
)

// memCache is a map backed cache honouring hard expiry against a clock
type memCache struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]*models.CacheEntry
	getErr  error
	sets    int
}

func newMemCache(clk clock.Clock) *memCache {
	return &memCache{clock: clk, entries: make(map[string]*models.CacheEntry)}
}

func (c *memCache) Get(_ context.Context, key string) (*models.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	e, ok := c.entries[key]
	if !ok || e.IsExpiredAt(c.clock.Now()) {
		return nil, false, nil
	}
	return e, true, nil
}

func (c *memCache) Set(_ context.Context, key string, entry *models.CacheEntry, _ models.TTL) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) PurgeTags(context.Context, ...string) error { return nil }
func (c *memCache) Close() error                               { return nil }

func (c *memCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *memCache) stored(key string) (*models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// recorder collects event kinds
type recorder struct {
	mu    sync.Mutex
	kinds []models.EventKind
}

func (r *recorder) OnEvent(ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, ev.Kind)
}

func (r *recorder) seen() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.EventKind(nil), r.kinds...)
}

func (r *recorder) count(kind models.EventKind) int {
	n := 0
	for _, k := range r.seen() {
		if k == kind {
			n++
		}
	}
	return n
}

type harness struct {
	handler   Handler
	cache     *memCache
	transport *mock.MockTransport
	clock     *clock.Mock
	events    *recorder
	breakers  *breaker.Registry
}

func newHarness(t *testing.T, withBreaker bool) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)

	h := &harness{
		clock:     clock.NewMock(),
		transport: mock.NewMockTransport(ctrl),
		events:    &recorder{},
	}
	h.cache = newMemCache(h.clock)

	if withBreaker {
		h.breakers = breaker.NewRegistry(breaker.Config{
			VolumeThreshold: 3,
			ErrorThreshold:  20,
		}, true, h.clock, logger)
	}

	policy := cache_rules.NewPolicy(cache_rules.PolicyConfig{}, logger)
	h.handler = Build(Components{
		Cache:      h.cache,
		Classifier: cache_rules.NewClassifier(logger, policy),
		Transport:  h.transport,
		Breakers:   h.breakers,
		Emitter:    events.NewEmitter(nil, h.events),
		Clock:      h.clock,
		Logger:     logger,
	})
	return h
}

func newRequest(url, key string) *Request {
	return &Request{
		Fetch:           &models.FetchRequest{URL: url, StatsdKey: "fetch.test"},
		Key:             key,
		FollowRedirects: true,
	}
}
