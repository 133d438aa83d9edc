package breaker

import (
	"net/url"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/metrics"
)

// Registry hands out one breaker per upstream key, creating them lazily
type Registry struct {
	config      Config
	includePath bool
	clock       clock.Clock
	logger      *zap.Logger

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry. With includePath the key is host+path,
// otherwise host only.
func NewRegistry(config Config, includePath bool, clk clock.Clock, logger *zap.Logger) *Registry {
	config.applyDefaults()
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		config:      config,
		includePath: includePath,
		clock:       clk,
		logger:      logger,
		breakers:    make(map[string]*Breaker),
	}
}

// KeyFor derives the breaker key of a url. The query is never part of it.
// An empty key means the url has no host and is not guarded.
func (r *Registry) KeyFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	if r.includePath {
		return u.Host + u.Path
	}
	return u.Host
}

// Get returns the breaker for key, creating a closed one on first use
func (r *Registry) Get(key string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[key]; ok {
		return b
	}

	b = New(key, r.config, r.clock)
	b.onTransition = r.onTransition
	r.breakers[key] = b
	metrics.UpdateBreakerState(key, int(StateClosed))
	return b
}

// States snapshots the state of every known breaker
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for key, b := range r.breakers {
		states[key] = b.State()
	}
	return states
}

func (r *Registry) onTransition(key string, from, to State) {
	metrics.UpdateBreakerState(key, int(to))
	metrics.RecordBreakerTransition(to.String())

	if to == StateOpen {
		r.logger.Warn("Circuit breaker opened",
			zap.String("key", key),
			zap.String("from", from.String()))
		return
	}
	r.logger.Info("Circuit breaker state changed",
		zap.String("key", key),
		zap.String("from", from.String()),
		zap.String("to", to.String()))
}
