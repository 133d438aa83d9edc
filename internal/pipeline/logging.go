package pipeline

import (
	"context"
	"errors"

	"go-reliable-fetch/internal/events"
	"go-reliable-fetch/internal/fetcherr"
	"go-reliable-fetch/internal/models"
)

// LoggingStage raises log-start before and log-end or log-error after the call
type LoggingStage struct {
	emitter *events.Emitter
}

func NewLoggingStage(emitter *events.Emitter) *LoggingStage {
	return &LoggingStage{emitter: emitter}
}

func (s *LoggingStage) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	s.emitter.Emit(req.Event(models.EventLogStart))

	result, err := next(ctx, req)

	if err != nil {
		ev := req.Event(models.EventLogError)
		ev.Err = err
		ev.StatusCode = statusOf(err)
		if result != nil {
			ev.Timing = result.RealTiming
		}
		s.emitter.Emit(ev)
		return result, err
	}

	ev := req.Event(models.EventLogEnd)
	if result != nil {
		ev.StatusCode = result.StatusCode
		ev.Timing = result.RealTiming
	}
	s.emitter.Emit(ev)
	return result, nil
}

// statusOf returns the upstream status of err, zero for transport level failures
func statusOf(err error) int {
	var fe *fetcherr.Error
	if !errors.As(err, &fe) {
		return 0
	}
	switch fe.Type {
	case fetcherr.TypeHTTPStatus, fetcherr.TypeRedirectNotFollowed:
		return fe.StatusCode
	default:
		return 0
	}
}
