// Package reliablefetch fetches HTTP resources through a cache, request
// coalescing, stale fallback and optional per-upstream circuit breaking.
package reliablefetch

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/cache"
	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/fetcher"
	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/transport"
)

type (
	Request   = models.FetchRequest
	Result    = models.FetchResult
	Event     = models.Event
	Config    = config.Config
	Error     = fetcherr.Error
	EventSink = interfaces.EventSink
	Observer  = events.Observer
	Transport = interfaces.Transport
	Cache     = interfaces.Cache
)

// CacheURL requests content straight from the cache without calling upstream
const CacheURL = models.CacheURL

// ErrCircuitOpen matches failures rejected by an open circuit breaker
var ErrCircuitOpen = fetcherr.ErrCircuitOpen

// TTL returns a value suitable for Request.CacheTTL
var TTL = models.TTLOf

// LoadConfig reads a YAML configuration file
func LoadConfig(path string, logger *zap.Logger) (*Config, error) {
	return config.LoadConfig(path, logger)
}

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *Config {
	return config.Default()
}

// IsFallbackEligible reports whether stale content may stand in for err
func IsFallbackEligible(err error) bool {
	return fetcherr.IsFallbackEligible(err)
}

type options struct {
	sink      EventSink
	observers []Observer
	transport Transport
	cache     Cache
	clock     clock.Clock
}

// Option customizes a Client
type Option func(*options)

// WithEventSink replaces the default zap and prometheus sink
func WithEventSink(sink EventSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithObserver registers an observer of raw events
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observers = append(o.observers, observer) }
}

// WithTransport replaces the net/http transport
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithCache replaces the configured cache store. The client does not close it.
func WithCache(c Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithClock replaces the wall clock used for freshness and breaker windows
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Client is safe for concurrent use
type Client struct {
	fetcher   *fetcher.Fetcher
	cache     Cache
	ownsCache bool
	logger    *zap.Logger
}

// New builds a client from cfg. A nil cfg uses the defaults.
func New(cfg *Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	ownsCache := false
	if o.cache == nil {
		store, err := cache.NewCache(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		o.cache = store
		ownsCache = true
	}
	if o.transport == nil {
		o.transport = transport.NewHTTPTransport(nil, logger)
	}
	if o.sink == nil {
		o.sink = events.MultiSink{events.NewZapSink(logger), events.PrometheusSink{}}
	}

	f := fetcher.New(cfg, fetcher.Dependencies{
		Cache:     o.cache,
		Transport: o.transport,
		Sink:      o.sink,
		Observers: o.observers,
		Clock:     o.clock,
	}, logger)

	return &Client{
		fetcher:   f,
		cache:     o.cache,
		ownsCache: ownsCache,
		logger:    logger,
	}, nil
}

// Get fetches req. A non-nil result may come back together with an error,
// for example stale content when the upstream failed.
func (c *Client) Get(ctx context.Context, req *Request) (*Result, error) {
	return c.fetcher.Fetch(ctx, req)
}

// BreakerStates reports every known circuit breaker by key
func (c *Client) BreakerStates() map[string]string {
	states := c.fetcher.BreakerStates()
	if states == nil {
		return nil
	}
	out := make(map[string]string, len(states))
	for key, state := range states {
		out[key] = state.String()
	}
	return out
}

// Cache returns the store the client reads and writes
func (c *Client) Cache() Cache {
	return c.cache
}

// Close releases the cache store if the client created it
func (c *Client) Close() error {
	if !c.ownsCache {
		return nil
	}
	return c.cache.Close()
}

