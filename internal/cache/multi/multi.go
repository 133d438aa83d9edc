package multi

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
)

// Ensure MultiCache implements interfaces.Cache
var _ interfaces.Cache = (*MultiCache)(nil)

// MultiCache layers caches from nearest to farthest. Reads stop at the first
// hit and backfill the nearer levels; writes go to every level.
type MultiCache struct {
	caches []interfaces.Cache
	logger *zap.Logger
	clock  clock.Clock
}

// NewMultiCache creates a new MultiCache instance with provided cache implementations
func NewMultiCache(caches []interfaces.Cache, logger *zap.Logger) interfaces.Cache {
	return &MultiCache{
		caches: caches,
		logger: logger,
		clock:  clock.New(),
	}
}

// Get retrieves the entry from the first level that has it. A failing level is
// skipped; its error is returned only when no level answers.
func (mc *MultiCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for get operation", zap.String("key", key))
		return nil, false, nil
	}

	var firstErr error
	for i, cache := range mc.caches {
		entry, found, err := cache.Get(ctx, key)
		if err != nil {
			mc.logger.Warn("Cache level get failed", zap.String("key", key), zap.Int("level", i), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if found {
			mc.backfill(ctx, key, entry, i)
			return entry, true, nil
		}
	}
	return nil, false, firstErr
}

// backfill copies an entry found at level into every nearer level for its remaining lifetime
func (mc *MultiCache) backfill(ctx context.Context, key string, entry *models.CacheEntry, level int) {
	if level == 0 {
		return
	}

	ttl := entry.RemainingTTL(mc.clock.Now())
	if ttl.Total() <= 0 {
		return
	}

	for _, cache := range mc.caches[:level] {
		if err := cache.Set(ctx, key, entry, ttl); err != nil {
			mc.logger.Warn("Cache backfill failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Set stores the entry in all available caches
func (mc *MultiCache) Set(ctx context.Context, key string, entry *models.CacheEntry, ttl models.TTL) error {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for set operation", zap.String("key", key))
		return nil
	}

	var firstErr error
	for _, cache := range mc.caches {
		if err := cache.Set(ctx, key, entry, ttl); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Delete removes entry from all available caches
func (mc *MultiCache) Delete(ctx context.Context, key string) error {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for delete operation", zap.String("key", key))
		return nil
	}

	var firstErr error
	for _, cache := range mc.caches {
		if err := cache.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PurgeTags purges the tags from all available caches
func (mc *MultiCache) PurgeTags(ctx context.Context, tags ...string) error {
	var firstErr error
	for _, cache := range mc.caches {
		if err := cache.PurgeTags(ctx, tags...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every level
func (mc *MultiCache) Close() error {
	var firstErr error
	for _, cache := range mc.caches {
		if err := cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetCacheCount returns the number of caches in the multi-cache
func (mc *MultiCache) GetCacheCount() int {
	return len(mc.caches)
}
