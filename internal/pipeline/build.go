package pipeline

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/breaker"
	"go-reliable-fetch/internal/dedup"
	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/interfaces"
)

// Components are the collaborators a chain is built from. Breakers may be
// nil to leave circuit breaking out.
type Components struct {
	Cache       interfaces.Cache
	Classifier  interfaces.ValidityClassifier
	Transport   interfaces.Transport
	Coordinator *dedup.Coordinator
	Breakers    *breaker.Registry
	Emitter     *events.Emitter
	Clock       clock.Clock
	Logger      *zap.Logger
}

// Build composes the stages in their fixed order:
// logger, outer timing, fallback, cache, dedup, breaker, inner timing, transport.
func Build(c Components) Handler {
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Emitter == nil {
		c.Emitter = events.NewEmitter(nil)
	}
	if c.Coordinator == nil {
		c.Coordinator = dedup.NewCoordinator()
	}

	var breakerStage Stage
	if c.Breakers != nil {
		breakerStage = NewBreakerStage(c.Breakers)
	}

	return Chain(TransportHandler(c.Transport),
		NewLoggingStage(c.Emitter),
		NewOuterTimingStage(c.Clock),
		NewFallbackStage(c.Cache, c.Emitter, c.Logger),
		NewCacheStage(c.Cache, c.Classifier, c.Emitter, c.Clock, c.Logger),
		NewDedupStage(c.Coordinator, c.Emitter),
		breakerStage,
		NewInnerTimingStage(c.Clock),
	)
}
