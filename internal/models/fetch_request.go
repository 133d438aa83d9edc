package models

import (
	"net/http"
	"time"
)

// CacheURL is the sentinel URL that reads the cache without ever calling the upstream
const CacheURL = "cache"

const (
	DefaultAccept        = "text/html,application/xhtml+xml,application/xml,application/json"
	DefaultUserAgent     = "Reliable-Get-Request-Agent"
	DefaultTimeoutMillis = 5000
)

// FetchRequest describes a single GET issued through the pipeline
type FetchRequest struct {
	URL           string         `json:"url" validate:"required,url|eq=cache"`
	Headers       http.Header    `json:"headers,omitempty"`
	TimeoutMillis int            `json:"timeout,omitempty" validate:"gte=0"`
	CacheKey      string         `json:"cacheKey,omitempty"`
	CacheTTL      *time.Duration `json:"cacheTTL,omitempty"` // nil means policy default, zero disables caching
	// ExplicitNoCache bypasses the cache for this request
	ExplicitNoCache bool     `json:"explicitNoCache,omitempty"`
	Tags            []string `json:"tags,omitempty"`

	// Observability metadata, passed through untouched
	Tracer    string `json:"tracer,omitempty"`
	StatsdKey string `json:"statsdKey,omitempty"`
	Type      string `json:"type,omitempty"`
}

// TTLOf returns a pointer suitable for FetchRequest.CacheTTL
func TTLOf(d time.Duration) *time.Duration {
	return &d
}

// IsCacheSentinel reports whether the request only reads the cache
func (r *FetchRequest) IsCacheSentinel() bool {
	return r.URL == CacheURL
}

// Timeout returns the transport timeout, applying the default when unset
func (r *FetchRequest) Timeout() time.Duration {
	if r.TimeoutMillis <= 0 {
		return DefaultTimeoutMillis * time.Millisecond
	}
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

// Clone returns a deep copy so the caller's request is never mutated by the pipeline
func (r *FetchRequest) Clone() *FetchRequest {
	c := *r
	if r.Headers != nil {
		c.Headers = r.Headers.Clone()
	}
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.CacheTTL != nil {
		ttl := *r.CacheTTL
		c.CacheTTL = &ttl
	}
	return &c
}

// RequestOptions is the replayable subset of a request stored next to a cache entry
type RequestOptions struct {
	URL      string   `json:"url"`
	CacheKey string   `json:"cacheKey"`
	CacheTTL int64    `json:"cacheTTL,omitempty"` // millis
	Tags     []string `json:"tags,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// Options extracts the replayable options of the request
func (r *FetchRequest) Options() *RequestOptions {
	opts := &RequestOptions{
		URL:      r.URL,
		CacheKey: r.CacheKey,
		Tags:     r.Tags,
		Type:     r.Type,
	}
	if r.CacheTTL != nil {
		opts.CacheTTL = r.CacheTTL.Milliseconds()
	}
	return opts
}
