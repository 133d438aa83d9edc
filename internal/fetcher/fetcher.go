package fetcher

import (
	"context"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/breaker"
	"go-reliable-fetch/internal/cache"
	"go-reliable-fetch/internal/cache_rules"
	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/dedup"
	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/pipeline"
)

var validate = validator.New()

// Dependencies are the collaborators a Fetcher is built on. Sink, Observers
// and Clock are optional.
type Dependencies struct {
	Cache     interfaces.Cache
	Transport interfaces.Transport
	Sink      interfaces.EventSink
	Observers []events.Observer
	Clock     clock.Clock
}

// Fetcher normalizes requests and runs them through the stage chain
type Fetcher struct {
	config     *config.Config
	keyBuilder interfaces.KeyBuilder
	emitter    *events.Emitter
	breakers   *breaker.Registry
	handler    pipeline.Handler
	logger     *zap.Logger
}

// New composes the chain once. The circuit breaker stage is present only
// when enabled in cfg.
func New(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Fetcher {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	emitter := events.NewEmitter(deps.Sink, deps.Observers...)
	policy := cache_rules.NewPolicy(cfg.CacheRules, logger)

	var breakers *breaker.Registry
	if cfg.CircuitBreaker.Enabled {
		breakers = breaker.NewRegistry(breaker.Config{
			Window:          cfg.GetBreakerWindow(),
			NumBuckets:      cfg.CircuitBreaker.NumBuckets,
			ErrorThreshold:  cfg.CircuitBreaker.ErrorThreshold,
			VolumeThreshold: cfg.CircuitBreaker.VolumeThreshold,
		}, cfg.BreakerIncludesPath(), deps.Clock, logger)
	}

	handler := pipeline.Build(pipeline.Components{
		Cache:       deps.Cache,
		Classifier:  cache_rules.NewClassifier(logger, policy),
		Transport:   deps.Transport,
		Coordinator: dedup.NewCoordinator(),
		Breakers:    breakers,
		Emitter:     emitter,
		Clock:       deps.Clock,
		Logger:      logger,
	})

	logger.Info("Fetcher initialized",
		zap.String("engine", cfg.Cache.Engine),
		zap.Bool("circuit_breaker", cfg.CircuitBreaker.Enabled),
		zap.String("namespace", cfg.Cache.Namespace))

	return &Fetcher{
		config:     cfg,
		keyBuilder: cache.NewKeyBuilder(cfg.Cache.Namespace),
		emitter:    emitter,
		breakers:   breakers,
		handler:    handler,
		logger:     logger,
	}
}

// Fetch runs req through the chain. The caller's request is never modified.
// A non-nil result may accompany a non-nil error.
func (f *Fetcher) Fetch(ctx context.Context, req *models.FetchRequest) (*models.FetchResult, error) {
	if req == nil {
		return nil, fetcherr.InvalidURL("")
	}

	r := f.normalize(req)
	if err := validate.Struct(r); err != nil {
		ferr := fetcherr.InvalidURL(r.URL)
		ev := models.Event{
			Kind:      models.EventLogError,
			URL:       r.URL,
			StatsdKey: r.StatsdKey,
			Tracer:    r.Tracer,
			Type:      r.Type,
			Err:       ferr,
		}
		f.emitter.Emit(ev)
		return nil, ferr
	}

	key, _ := f.keyBuilder.Build(r)
	return f.handler(ctx, &pipeline.Request{
		Fetch:           r,
		Key:             key,
		FollowRedirects: f.config.FollowsRedirects(),
	})
}

// BreakerStates reports the state of every known breaker, nil when disabled
func (f *Fetcher) BreakerStates() map[string]breaker.State {
	if f.breakers == nil {
		return nil
	}
	return f.breakers.States()
}

func (f *Fetcher) normalize(req *models.FetchRequest) *models.FetchRequest {
	r := req.Clone()

	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	for name, value := range f.config.Fetch.Headers {
		if r.Headers.Get(name) == "" {
			r.Headers.Set(name, value)
		}
	}
	if r.Headers.Get("Accept") == "" {
		r.Headers.Set("Accept", models.DefaultAccept)
	}
	if r.Headers.Get("User-Agent") == "" {
		r.Headers.Set("User-Agent", models.DefaultUserAgent)
	}

	if r.TimeoutMillis <= 0 {
		r.TimeoutMillis = f.config.Fetch.Timeout
	}

	if r.StatsdKey == "" {
		if key, ok := f.keyBuilder.Build(r); ok {
			r.StatsdKey = "fetch." + cache.StatsdKey(key)
		} else {
			r.StatsdKey = "fetch." + cache.StatsdKey(cache.URLToCacheKey(r.URL))
		}
	}
	return r
}
