package l2

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/metrics"
	"go-reliable-fetch/internal/models"
)

// Ensure KeyDBCache implements interfaces.Cache
var _ interfaces.Cache = (*KeyDBCache)(nil)

// KeyDBCache implements L2 cache using Redis/KeyDB
type KeyDBCache struct {
	client interfaces.KeyDbClient
	config *config.Config
	logger *zap.Logger
	clock  clock.Clock
}

// NewKeyDBCache creates a new KeyDBCache instance with provided client
func NewKeyDBCache(cfg *config.Config, client interfaces.KeyDbClient, logger *zap.Logger) interfaces.Cache {
	return &KeyDBCache{
		client: client,
		config: cfg,
		logger: logger,
		clock:  clock.New(),
	}
}

// TagKey returns the set holding the member keys of tag
func (kc *KeyDBCache) TagKey(tag string) string {
	return kc.config.Cache.Namespace + "tag:" + tag
}

// Get returns any entry not past its hard expiry, fresh or stale
func (kc *KeyDBCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool, error) {
	defer metrics.TimeCacheOperation("get", "l2")()

	ctx, cancel := context.WithTimeout(ctx, kc.config.GetReadTimeout())
	defer cancel()

	data, err := kc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss("l2")
		return nil, false, nil
	}
	if err != nil {
		kc.logger.Error("L2 cache get error", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "upstream")
		return nil, false, err
	}

	entry, err := decodeEntry(key, data)
	if err != nil {
		kc.logger.Error("Failed to decode L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "decode")
		kc.client.Del(ctx, key)
		return nil, false, nil
	}

	if entry.IsExpiredAt(kc.clock.Now()) {
		metrics.RecordCacheMiss("l2")
		return nil, false, nil
	}

	metrics.RecordCacheHit("l2")
	return entry, true, nil
}

// Set stores the entry for ttl.Total() and adds the key to its tag sets
func (kc *KeyDBCache) Set(ctx context.Context, key string, entry *models.CacheEntry, ttl models.TTL) error {
	total := ttl.Total()
	if entry == nil || total <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	data, err := encodeEntry(entry, kc.config.KeyDB.CompressThreshold)
	if err != nil {
		kc.logger.Error("Failed to encode L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "encode")
		return err
	}

	if err := kc.client.Set(ctx, key, data, total).Err(); err != nil {
		kc.logger.Error("Failed to set L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "upstream")
		return err
	}

	for _, tag := range entry.Tags {
		if err := kc.addToTag(ctx, tag, key, total); err != nil {
			kc.logger.Warn("Failed to index L2 cache tag",
				zap.String("key", key),
				zap.String("tag", tag),
				zap.Error(err))
			metrics.RecordCacheError("l2", "tag")
			return err
		}
	}

	return nil
}

// addToTag records key under tag. The set lifetime is only ever extended so
// it outlives every member.
func (kc *KeyDBCache) addToTag(ctx context.Context, tag, key string, ttl time.Duration) error {
	tagKey := kc.TagKey(tag)

	if err := kc.client.SAdd(ctx, tagKey, key).Err(); err != nil {
		return err
	}

	current, err := kc.client.TTL(ctx, tagKey).Result()
	if err != nil {
		return err
	}
	if current >= ttl {
		return nil
	}

	return kc.client.Expire(ctx, tagKey, ttl).Err()
}

// Delete removes entry from KeyDB cache
func (kc *KeyDBCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Del(ctx, key).Err(); err != nil {
		kc.logger.Error("Failed to delete L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "upstream")
		return err
	}
	return nil
}

// PurgeTags deletes every member of each tag set, then the set itself
func (kc *KeyDBCache) PurgeTags(ctx context.Context, tags ...string) error {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	for _, tag := range tags {
		tagKey := kc.TagKey(tag)

		members, err := kc.client.SMembers(ctx, tagKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			kc.logger.Error("Failed to list L2 tag members", zap.String("tag", tag), zap.Error(err))
			metrics.RecordCacheError("l2", "upstream")
			return err
		}

		if len(members) > 0 {
			if err := kc.client.Del(ctx, members...).Err(); err != nil {
				kc.logger.Error("Failed to delete L2 tag members", zap.String("tag", tag), zap.Error(err))
				metrics.RecordCacheError("l2", "upstream")
				return err
			}
		}

		if err := kc.client.Del(ctx, tagKey).Err(); err != nil {
			kc.logger.Error("Failed to delete L2 tag set", zap.String("tag", tag), zap.Error(err))
			metrics.RecordCacheError("l2", "upstream")
			return err
		}

		kc.logger.Debug("Purged L2 tag", zap.String("tag", tag), zap.Int("keys", len(members)))
	}

	return nil
}

// Close closes the KeyDB connection
func (kc *KeyDBCache) Close() error {
	return kc.client.Close()
}
