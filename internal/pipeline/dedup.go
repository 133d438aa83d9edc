package pipeline

import (
	"context"

	"go-reliable-fetch/internal/dedup"
	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/models"
)

// DedupStage lets one call per cache key through to the upstream at a time.
// The shared call is detached from the leader's cancellation; only the
// request timeout bounds it.
type DedupStage struct {
	coordinator *dedup.Coordinator
	emitter     *events.Emitter
}

func NewDedupStage(coordinator *dedup.Coordinator, emitter *events.Emitter) *DedupStage {
	return &DedupStage{coordinator: coordinator, emitter: emitter}
}

func (s *DedupStage) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	shared := ctx
	if req.Key != "" {
		shared = context.WithoutCancel(ctx)
	}
	result, err, deduped := s.coordinator.Do(req.Key, func() (*models.FetchResult, error) {
		return next(shared, req)
	})
	if deduped {
		s.emitter.Emit(req.Event(models.EventDedupeQueue))
	}
	return result, err
}
