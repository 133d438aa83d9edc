package noop

import (
	"context"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
)

// Ensure NoOpCache implements interfaces.Cache
var _ interfaces.Cache = (*NoOpCache)(nil)

// NoOpCache is a no-operation cache implementation for disabled caches
type NoOpCache struct{}

// NewNoOpCache creates a new no-operation cache instance
func NewNoOpCache() interfaces.Cache {
	return &NoOpCache{}
}

// Get always returns cache miss
func (n *NoOpCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	return nil, false, nil
}

// Set does nothing
func (n *NoOpCache) Set(ctx context.Context, key string, entry *models.CacheEntry, ttl models.TTL) error {
	return nil
}

// Delete does nothing
func (n *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// PurgeTags does nothing
func (n *NoOpCache) PurgeTags(ctx context.Context, tags ...string) error {
	return nil
}

// Close does nothing
func (n *NoOpCache) Close() error {
	return nil
}
