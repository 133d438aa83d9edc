package interfaces

import (
	"context"

	"go-reliable-fetch/internal/models"
)

//go:generate mockgen -package=mock -source=cache.go -destination=mock/cache.go

// Cache interface defines the contract for cache store implementations.
// Get returns entries up to their hard expiry, fresh or not, and never extends
// their lifetime. A non-nil error means the backend failed, not a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry *models.CacheEntry, ttl models.TTL) error
	Delete(ctx context.Context, key string) error
	PurgeTags(ctx context.Context, tags ...string) error
	Close() error
}
