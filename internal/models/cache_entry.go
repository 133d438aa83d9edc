package models

import (
	"net/http"
	"time"
)

// TTL represents cache time-to-live configuration
type TTL struct {
	Fresh time.Duration // How long the data is considered fresh
	Stale time.Duration // How long stale data is kept after that for fallback
}

// Total is the physical lifetime of an entry in the backend
func (t TTL) Total() time.Duration {
	return t.Fresh + t.Stale
}

// CacheEntry is a stored response. Timestamps are unix milliseconds.
type CacheEntry struct {
	Key       string          `json:"key"`
	Content   []byte          `json:"content"`
	Headers   http.Header     `json:"headers,omitempty"`
	Options   *RequestOptions `json:"options,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	CreatedAt int64           `json:"created_at"`
	StaleAt   int64           `json:"stale_at"`
	ExpiresAt int64           `json:"expires_at"`
}

// NewCacheEntry stamps the entry timestamps from now and ttl
func NewCacheEntry(key string, content []byte, headers http.Header, now time.Time, ttl TTL) *CacheEntry {
	created := now.UnixMilli()
	return &CacheEntry{
		Key:       key,
		Content:   content,
		Headers:   headers,
		CreatedAt: created,
		StaleAt:   created + ttl.Fresh.Milliseconds(),
		ExpiresAt: created + ttl.Total().Milliseconds(),
	}
}

// IsFreshAt reports whether the entry is still logically valid at now
func (e *CacheEntry) IsFreshAt(now time.Time) bool {
	return now.UnixMilli() < e.StaleAt
}

// IsExpiredAt reports whether the entry is past its hard expiry at now
func (e *CacheEntry) IsExpiredAt(now time.Time) bool {
	return now.UnixMilli() >= e.ExpiresAt
}

// Remaining returns the physical lifetime left, zero when expired
func (e *CacheEntry) Remaining(now time.Time) time.Duration {
	left := time.Duration(e.ExpiresAt-now.UnixMilli()) * time.Millisecond
	if left < 0 {
		return 0
	}
	return left
}

// RemainingTTL splits the remaining lifetime back into fresh and stale parts
func (e *CacheEntry) RemainingTTL(now time.Time) TTL {
	ms := now.UnixMilli()
	fresh := time.Duration(e.StaleAt-ms) * time.Millisecond
	if fresh < 0 {
		fresh = 0
	}
	return TTL{Fresh: fresh, Stale: e.Remaining(now) - fresh}
}

// ValiditySeconds is the logical freshness window the entry was stored with
func (e *CacheEntry) ValiditySeconds() int64 {
	return (e.StaleAt - e.CreatedAt) / 1000
}

// HardExpirySeconds is the physical lifetime the entry was stored with
func (e *CacheEntry) HardExpirySeconds() int64 {
	return (e.ExpiresAt - e.CreatedAt) / 1000
}

// ToResult turns the entry into a 200 result
func (e *CacheEntry) ToResult() *FetchResult {
	var headers http.Header
	if e.Headers != nil {
		headers = e.Headers.Clone()
		headers.Del("Set-Cookie")
	}
	return &FetchResult{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Content:    e.Content,
	}
}
