package pipeline

import (
	"context"

	"go.uber.org/zap"

	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
)

// FallbackStage serves whatever the cache still holds when the upstream fails
type FallbackStage struct {
	cache   interfaces.Cache
	emitter *events.Emitter
	logger  *zap.Logger
}

func NewFallbackStage(cache interfaces.Cache, emitter *events.Emitter, logger *zap.Logger) *FallbackStage {
	return &FallbackStage{cache: cache, emitter: emitter, logger: logger}
}

func (s *FallbackStage) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	result, err := next(ctx, req)
	if err == nil || req.Key == "" || !fetcherr.IsFallbackEligible(err) {
		return result, err
	}

	entry, ok, cacheErr := s.cache.Get(ctx, req.Key)
	if cacheErr != nil {
		s.logger.Warn("Fallback cache read failed",
			zap.String("key", req.Key),
			zap.Error(cacheErr))
	}
	if cacheErr != nil || !ok {
		s.emitter.Emit(req.Event(models.EventFallbackCacheMiss))
		return result, err
	}

	stale := entry.ToResult()
	stale.Stale = true
	s.emitter.Emit(req.Event(models.EventFallbackCacheHit))
	return stale, err
}
