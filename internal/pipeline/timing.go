package pipeline

import (
	"context"

	"github.com/benbjohnson/clock"

	"go-reliable-fetch/internal/models"
)

// TimingStage measures the rest of the chain. The outer instance records
// RealTiming, the one around the transport records Timing.
type TimingStage struct {
	clock clock.Clock
	outer bool
}

// NewOuterTimingStage measures the whole call including cache and fallback
func NewOuterTimingStage(clk clock.Clock) *TimingStage {
	return &TimingStage{clock: clk, outer: true}
}

// NewInnerTimingStage measures the upstream call only
func NewInnerTimingStage(clk clock.Clock) *TimingStage {
	return &TimingStage{clock: clk}
}

func (s *TimingStage) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	start := s.clock.Now()
	result, err := next(ctx, req)
	if result == nil {
		return result, err
	}

	elapsed := s.clock.Since(start)
	if s.outer {
		result.RealTiming = elapsed
	} else {
		result.Timing = elapsed
	}
	return result, err
}
