package models

import (
	"net/http"
	"time"
)

// FetchResult is what the pipeline hands back to the caller. It may be returned
// together with a non-nil error (stale fallback, 4xx with body).
type FetchResult struct {
	StatusCode int           `json:"statusCode"`
	Headers    http.Header   `json:"headers,omitempty"`
	Content    []byte        `json:"content,omitempty"`
	Timing     time.Duration `json:"timing"`
	RealTiming time.Duration `json:"realTiming"`
	Cached     bool          `json:"cached"`
	Deduped    bool          `json:"deduped"`
	Stale      bool          `json:"stale"`
}

// Copy returns a shallow copy with its own header map
func (r *FetchResult) Copy() *FetchResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Headers != nil {
		c.Headers = r.Headers.Clone()
	}
	return &c
}

// TransportResponse is the raw answer of the transport collaborator
type TransportResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Timing     time.Duration
}
