package l1

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/metrics"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/scheduler"
)

// Ensure BigCache implements interfaces.Cache
var _ interfaces.Cache = (*BigCache)(nil)

// BigCache implements L1 cache using BigCache
type BigCache struct {
	cache            *bigcache.BigCache
	logger           *zap.Logger
	clock            clock.Clock
	maxBytes         int64
	metricsScheduler *scheduler.Scheduler

	tagsMu  sync.Mutex
	tags    map[string]map[string]struct{}
	keyTags map[string][]string
}

// NewBigCache creates a new BigCache instance
func NewBigCache(bigcacheCfg *config.BigCacheConfig, logger *zap.Logger) (interfaces.Cache, error) {
	cfg := bigcache.DefaultConfig(bigcacheCfg.GetLifeWindow())
	cfg.HardMaxCacheSize = bigcacheCfg.Size // Size in MB
	cfg.MaxEntrySize = bigcacheCfg.MaxEntrySize
	cfg.CleanWindow = bigcacheCfg.GetCleanWindow()
	cfg.Verbose = false

	bc := &BigCache{
		logger:   logger,
		clock:    clock.New(),
		maxBytes: int64(bigcacheCfg.Size) * 1024 * 1024,
		tags:     make(map[string]map[string]struct{}),
		keyTags:  make(map[string][]string),
	}
	// entries evicted or expired by bigcache itself leave the tag index too
	cfg.OnRemove = func(key string, _ []byte) {
		bc.unindexKey(key)
	}

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	bc.cache = cache

	if interval := bigcacheCfg.GetMetricsInterval(); interval > 0 {
		bc.startMetricsCollection(interval)
	}

	return bc, nil
}

// Get returns any entry not past its hard expiry, fresh or stale
func (bc *BigCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	defer metrics.TimeCacheOperation("get", "l1")()

	data, err := bc.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		metrics.RecordCacheMiss("l1")
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordCacheError("l1", "upstream")
		return nil, false, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		bc.logger.Warn("Failed to unmarshal L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "decode")
		_ = bc.Delete(ctx, key) // Remove corrupted entry
		return nil, false, nil
	}

	if entry.IsExpiredAt(bc.clock.Now()) {
		_ = bc.Delete(ctx, key)
		metrics.RecordCacheMiss("l1")
		return nil, false, nil
	}

	metrics.RecordCacheHit("l1")
	return &entry, true, nil
}

// Set stores the entry and records its tags. The entry never outlives now+ttl.
func (bc *BigCache) Set(ctx context.Context, key string, entry *models.CacheEntry, ttl models.TTL) error {
	if entry == nil || ttl.Total() <= 0 {
		return nil
	}

	stored := *entry
	stored.Key = key
	now := bc.clock.Now()
	if limit := now.Add(ttl.Total()).UnixMilli(); stored.ExpiresAt == 0 || stored.ExpiresAt > limit {
		stored.ExpiresAt = limit
	}
	if stored.StaleAt == 0 || stored.StaleAt > stored.ExpiresAt {
		stored.StaleAt = now.Add(ttl.Fresh).UnixMilli()
	}
	if stored.CreatedAt == 0 {
		stored.CreatedAt = now.UnixMilli()
	}

	data, err := json.Marshal(stored)
	if err != nil {
		bc.logger.Error("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "encode")
		return err
	}

	if err := bc.cache.Set(key, data); err != nil {
		bc.logger.Error("Failed to set cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "upstream")
		return err
	}

	bc.indexTags(key, stored.Tags)
	return nil
}

// Delete removes entry from cache and from the tag index
func (bc *BigCache) Delete(ctx context.Context, key string) error {
	bc.unindexKey(key)
	err := bc.cache.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// PurgeTags deletes every key recorded under the given tags
func (bc *BigCache) PurgeTags(ctx context.Context, tags ...string) error {
	bc.tagsMu.Lock()
	var keys []string
	for _, tag := range tags {
		for key := range bc.tags[tag] {
			keys = append(keys, key)
		}
		delete(bc.tags, tag)
	}
	bc.tagsMu.Unlock()

	for _, key := range keys {
		if err := bc.Delete(ctx, key); err != nil {
			return err
		}
	}

	bc.logger.Debug("Purged L1 tags", zap.Strings("tags", tags), zap.Int("keys", len(keys)))
	return nil
}

// Close closes the cache
func (bc *BigCache) Close() error {
	bc.stopMetricsCollection()
	return bc.cache.Close()
}

// GetStats returns configured capacity and bytes in use
func (bc *BigCache) GetStats() (capacity, used int64) {
	return bc.maxBytes, int64(bc.cache.Capacity())
}

func (bc *BigCache) indexTags(key string, tags []string) {
	bc.tagsMu.Lock()
	defer bc.tagsMu.Unlock()

	bc.unindexLocked(key)
	if len(tags) == 0 {
		return
	}

	for _, tag := range tags {
		keys, ok := bc.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			bc.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	bc.keyTags[key] = append([]string(nil), tags...)
}

func (bc *BigCache) unindexKey(key string) {
	bc.tagsMu.Lock()
	defer bc.tagsMu.Unlock()
	bc.unindexLocked(key)
}

func (bc *BigCache) unindexLocked(key string) {
	for _, tag := range bc.keyTags[key] {
		if keys, ok := bc.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(bc.tags, tag)
			}
		}
	}
	delete(bc.keyTags, key)
}

// startMetricsCollection starts periodic metrics collection
func (bc *BigCache) startMetricsCollection(interval time.Duration) {
	bc.metricsScheduler = scheduler.New(interval, bc.updateMetrics)
	bc.metricsScheduler.Start()

	// Initial collection
	bc.updateMetrics()

	bc.logger.Debug("Started L1 cache metrics collection")
}

// stopMetricsCollection stops periodic metrics collection
func (bc *BigCache) stopMetricsCollection() {
	if bc.metricsScheduler != nil {
		bc.metricsScheduler.Stop()
		bc.logger.Debug("Stopped L1 cache metrics collection")
	}
}

func (bc *BigCache) updateMetrics() {
	capacity, used := bc.GetStats()
	metrics.UpdateL1CacheCapacity(capacity, used)
	metrics.UpdateCacheKeys("l1", int64(bc.cache.Len()))
}
