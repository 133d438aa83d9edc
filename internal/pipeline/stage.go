package pipeline

import (
	"context"

	"go-reliable-fetch/internal/models"
)

// Request is the normalized request travelling through the chain
type Request struct {
	Fetch *models.FetchRequest
	// Key is the namespaced cache key, empty when the request is not cached
	Key             string
	FollowRedirects bool
}

// Event builds an event carrying the request's observability metadata
func (r *Request) Event(kind models.EventKind) models.Event {
	return models.Event{
		Kind:      kind,
		Key:       r.Key,
		URL:       r.Fetch.URL,
		StatsdKey: r.Fetch.StatsdKey,
		Tracer:    r.Fetch.Tracer,
		Type:      r.Fetch.Type,
	}
}

// Handler runs the remainder of the chain
type Handler func(ctx context.Context, req *Request) (*models.FetchResult, error)

// Stage wraps the rest of the chain. A stage may return a result together
// with an error.
type Stage interface {
	Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error)
}

// StageFunc adapts a function to Stage
type StageFunc func(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error)

func (f StageFunc) Execute(ctx context.Context, req *Request, next Handler) (*models.FetchResult, error) {
	return f(ctx, req, next)
}

// Chain composes stages around terminal, first stage outermost
func Chain(terminal Handler, stages ...Stage) Handler {
	h := terminal
	for i := len(stages) - 1; i >= 0; i-- {
		stage, next := stages[i], h
		if stage == nil {
			continue
		}
		h = func(ctx context.Context, req *Request) (*models.FetchResult, error) {
			return stage.Execute(ctx, req, next)
		}
	}
	return h
}
