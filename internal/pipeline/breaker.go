package pipeline

import (
	"context"

	"go-reliable-fetch/internal/breaker"
	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/models"
)

// BreakerStage fails fast for upstreams whose breaker is open
type BreakerStage struct {
	registry *breaker.Registry
}

func NewBreakerStage(registry *breaker.Registry) *BreakerStage {
	return &BreakerStage{registry: registry}
}

func (s *BreakerStage) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	if req.Fetch.IsCacheSentinel() {
		return next(ctx, req)
	}
	key := s.registry.KeyFor(req.Fetch.URL)
	if key == "" {
		return next(ctx, req)
	}

	b := s.registry.Get(key)
	permit, ok := b.Allow()
	if !ok {
		return nil, fetcherr.CircuitOpen(req.Fetch.URL, b.Key())
	}

	result, err := next(ctx, req)
	if fetcherr.IsUpstreamFailure(err) {
		permit.Failure()
	} else {
		permit.Success()
	}
	return result, err
}
