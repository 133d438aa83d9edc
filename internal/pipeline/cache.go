package pipeline

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/utils"
)

// CacheStage answers from the cache while entries are fresh and stores
// cacheable upstream responses.
type CacheStage struct {
	cache      interfaces.Cache
	classifier interfaces.ValidityClassifier
	emitter    *events.Emitter
	clock      clock.Clock
	logger     *zap.Logger
}

func NewCacheStage(cache interfaces.Cache, classifier interfaces.ValidityClassifier, emitter *events.Emitter, clk clock.Clock, logger *zap.Logger) *CacheStage {
	return &CacheStage{
		cache:      cache,
		classifier: classifier,
		emitter:    emitter,
		clock:      clk,
		logger:     logger,
	}
}

func (s *CacheStage) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	if req.Key == "" {
		return next(ctx, req)
	}

	entry, ok, err := s.cache.Get(ctx, req.Key)
	if err != nil {
		ev := req.Event(models.EventCacheError)
		ev.Err = err
		s.emitter.Emit(ev)
		ok = false
	}

	// the sentinel url takes whatever is stored, fresh or not
	if ok && (req.Fetch.IsCacheSentinel() || entry.IsFreshAt(s.clock.Now())) {
		result := entry.ToResult()
		result.Cached = true
		s.emitter.Emit(req.Event(models.EventCacheHit))
		return result, nil
	}

	s.emitter.Emit(req.Event(models.EventCacheMiss))

	result, err := next(ctx, req)
	if err != nil || result == nil {
		return result, err
	}

	// the leader of a coalesced call already stored it
	if !result.Deduped {
		s.store(ctx, req, result)
	}
	return result, nil
}

func (s *CacheStage) store(ctx context.Context, req *Request, result *models.FetchResult) {
	validity := s.classifier.ValiditySeconds(req.Fetch, result.StatusCode, result.Headers)
	if validity <= 0 {
		return
	}

	ttl := s.classifier.TTLForValidity(validity)
	entry := models.NewCacheEntry(req.Key, result.Content, utils.FilterHeaders(result.Headers), s.clock.Now(), ttl)
	entry.Options = req.Fetch.Options()
	entry.Tags = req.Fetch.Tags

	if err := s.cache.Set(ctx, req.Key, entry, ttl); err != nil {
		s.logger.Warn("Failed to store response",
			zap.String("key", req.Key),
			zap.Error(err))
		return
	}

	ev := req.Event(models.EventCacheSet)
	ev.TTL = ttl.Fresh
	s.emitter.Emit(ev)
}
