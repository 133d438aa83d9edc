package cache

import (
	"strings"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
)

// Ensure KeyBuilderImpl implements interfaces.KeyBuilder
var _ interfaces.KeyBuilder = (*KeyBuilderImpl)(nil)

var separatorReplacer = strings.NewReplacer(".", "_", "-", "_", ":", "_", "/", "_")

// KeyBuilderImpl implements the KeyBuilder interface
type KeyBuilderImpl struct {
	namespace string
}

// NewKeyBuilder creates a new KeyBuilder instance prefixing keys with namespace
func NewKeyBuilder(namespace string) interfaces.KeyBuilder {
	return &KeyBuilderImpl{namespace: namespace}
}

// Build creates the cache key for a request. It returns false when the request
// opts out of caching or no key can be derived.
func (kb *KeyBuilderImpl) Build(req *models.FetchRequest) (string, bool) {
	if req == nil || !IsCached(req) {
		return "", false
	}

	if req.CacheKey != "" {
		return kb.Namespaced(req.CacheKey), true
	}

	if req.URL == "" {
		return "", false
	}

	return kb.Namespaced(URLToCacheKey(req.URL)), true
}

// Namespaced prefixes key with the configured namespace, unconditionally
func (kb *KeyBuilderImpl) Namespaced(key string) string {
	return kb.namespace + key
}

// IsCached reports whether the request allows caching at all
func IsCached(req *models.FetchRequest) bool {
	if req.ExplicitNoCache {
		return false
	}
	return req.CacheTTL == nil || *req.CacheTTL != 0
}

// URLToCacheKey strips the scheme and flattens separators
func URLToCacheKey(url string) string {
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	return separatorReplacer.Replace(url)
}

// StatsdKey flattens a cache key into a statsd-safe metric name
func StatsdKey(key string) string {
	return separatorReplacer.Replace(key)
}
