package interfaces

import "go-reliable-fetch/internal/models"

//go:generate mockgen -package=mock -source=key_builder.go -destination=mock/key_builder.go

// KeyBuilder canonizes requests into deterministic cache keys
type KeyBuilder interface {
	// Build returns the cache key, or false when the request must not be cached
	Build(req *models.FetchRequest) (string, bool)
	// Namespaced applies the configured namespace to a raw key
	Namespaced(key string) string
}
