package l2

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/interfaces/mock"
	"go-reliable-fetch/internal/models"
)

func newTestKeyDBCache(t *testing.T) (*KeyDBCache, *mock.MockKeyDbClient) {
	ctrl := gomock.NewController(t)
	mockClient := mock.NewMockKeyDbClient(ctrl)

	cfg := config.Default()
	cfg.Cache.Namespace = "ns:"

	return NewKeyDBCache(cfg, mockClient, zap.NewNop()).(*KeyDBCache), mockClient
}

func encodedEntry(t *testing.T, entry *models.CacheEntry) string {
	data, err := encodeEntry(entry, 1024)
	require.NoError(t, err)
	return string(data)
}

func TestNewKeyDBCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockKeyDbClient(ctrl)
	cfg := config.Default()
	logger := zap.NewNop()

	cache := NewKeyDBCache(cfg, mockClient, logger)

	assert.NotNil(t, cache)
	keydbCache, ok := cache.(*KeyDBCache)
	assert.True(t, ok)
	assert.Equal(t, mockClient, keydbCache.client)
	assert.Equal(t, cfg, keydbCache.config)
	assert.Equal(t, logger, keydbCache.logger)
}

func TestKeyDBCache_Get_Success_Fresh(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	entry := models.NewCacheEntry("test-key", []byte("test-data"), http.Header{"Etag": {"1"}}, time.Now(), models.TTL{Fresh: time.Minute, Stale: time.Minute})
	mockClient.EXPECT().Get(gomock.Any(), "test-key").Return(redis.NewStringResult(encodedEntry(t, entry), nil))

	result, found, err := cache.Get(context.Background(), "test-key")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.True(t, result.IsFreshAt(time.Now()))
	assert.Equal(t, []byte("test-data"), result.Content)
	assert.Equal(t, "1", result.Headers.Get("Etag"))
	assert.Equal(t, "test-key", result.Key)
}

func TestKeyDBCache_Get_Success_Stale(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	now := time.Now().UnixMilli()
	entry := &models.CacheEntry{
		Content:   []byte("test-data"),
		CreatedAt: now - 200000,
		StaleAt:   now - 50000, // Stale but not expired
		ExpiresAt: now + 100000,
	}
	mockClient.EXPECT().Get(gomock.Any(), "test-key").Return(redis.NewStringResult(encodedEntry(t, entry), nil))

	result, found, err := cache.Get(context.Background(), "test-key")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.False(t, result.IsFreshAt(time.Now()))
	assert.Equal(t, []byte("test-data"), result.Content)
}

func TestKeyDBCache_Get_Expired(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	now := time.Now().UnixMilli()
	entry := &models.CacheEntry{
		Content:   []byte("test-data"),
		CreatedAt: now - 300000,
		StaleAt:   now - 200000,
		ExpiresAt: now - 100000,
	}
	mockClient.EXPECT().Get(gomock.Any(), "test-key").Return(redis.NewStringResult(encodedEntry(t, entry), nil))

	result, found, err := cache.Get(context.Background(), "test-key")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestKeyDBCache_Get_NotFound(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	mockClient.EXPECT().Get(gomock.Any(), "test-key").Return(redis.NewStringResult("", redis.Nil))

	result, found, err := cache.Get(context.Background(), "test-key")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestKeyDBCache_Get_BackendError(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	mockClient.EXPECT().Get(gomock.Any(), "test-key").Return(redis.NewStringResult("", errors.New("connection reset")))

	result, found, err := cache.Get(context.Background(), "test-key")

	assert.Error(t, err)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestKeyDBCache_Get_CorruptedIsDeleted(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	mockClient.EXPECT().Get(gomock.Any(), "test-key").Return(redis.NewStringResult("{invalid json", nil))
	mockClient.EXPECT().Del(gomock.Any(), "test-key").Return(redis.NewIntResult(1, nil))

	result, found, err := cache.Get(context.Background(), "test-key")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, result)
}

func TestKeyDBCache_Set_Success(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	ttl := models.TTL{Fresh: 60 * time.Second, Stale: 240 * time.Second}
	entry := models.NewCacheEntry("test-key", []byte("test-data"), nil, time.Now(), ttl)

	mockClient.EXPECT().
		Set(gomock.Any(), "test-key", gomock.Any(), 300*time.Second).
		DoAndReturn(func(_ context.Context, _ string, value interface{}, _ time.Duration) *redis.StatusCmd {
			decoded, err := decodeEntry("test-key", value.([]byte))
			assert.NoError(t, err)
			assert.Equal(t, []byte("test-data"), decoded.Content)
			return redis.NewStatusResult("OK", nil)
		})

	assert.NoError(t, cache.Set(context.Background(), "test-key", entry, ttl))
}

func TestKeyDBCache_Set_Error(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	ttl := models.TTL{Fresh: 60 * time.Second}
	entry := models.NewCacheEntry("test-key", []byte("test-data"), nil, time.Now(), ttl)

	mockClient.EXPECT().
		Set(gomock.Any(), "test-key", gomock.Any(), 60*time.Second).
		Return(redis.NewStatusResult("", errors.New("set failed")))

	assert.Error(t, cache.Set(context.Background(), "test-key", entry, ttl))
}

func TestKeyDBCache_Set_ZeroTTLIsNoop(t *testing.T) {
	cache, _ := newTestKeyDBCache(t)

	entry := &models.CacheEntry{Content: []byte("x")}
	assert.NoError(t, cache.Set(context.Background(), "test-key", entry, models.TTL{}))
}

func TestKeyDBCache_Set_TagsExtendOnly(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	ttl := models.TTL{Fresh: 10 * time.Second, Stale: 40 * time.Second}
	entry := models.NewCacheEntry("k", []byte("v"), nil, time.Now(), ttl)
	entry.Tags = []string{"short", "long"}

	mockClient.EXPECT().Set(gomock.Any(), "k", gomock.Any(), 50*time.Second).Return(redis.NewStatusResult("OK", nil))

	// new set: no expiry yet, gets the entry lifetime
	mockClient.EXPECT().SAdd(gomock.Any(), "ns:tag:short", "k").Return(redis.NewIntResult(1, nil))
	mockClient.EXPECT().TTL(gomock.Any(), "ns:tag:short").Return(redis.NewDurationResult(-1, nil))
	mockClient.EXPECT().Expire(gomock.Any(), "ns:tag:short", 50*time.Second).Return(redis.NewBoolResult(true, nil))

	// existing set already outlives the entry: untouched
	mockClient.EXPECT().SAdd(gomock.Any(), "ns:tag:long", "k").Return(redis.NewIntResult(1, nil))
	mockClient.EXPECT().TTL(gomock.Any(), "ns:tag:long").Return(redis.NewDurationResult(time.Hour, nil))

	assert.NoError(t, cache.Set(context.Background(), "k", entry, ttl))
}

func TestKeyDBCache_Delete(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	mockClient.EXPECT().Del(gomock.Any(), "test-key").Return(redis.NewIntResult(0, nil))
	assert.NoError(t, cache.Delete(context.Background(), "test-key"))

	mockClient.EXPECT().Del(gomock.Any(), "test-key").Return(redis.NewIntResult(0, errors.New("delete failed")))
	assert.Error(t, cache.Delete(context.Background(), "test-key"))
}

func TestKeyDBCache_PurgeTags(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	gomock.InOrder(
		mockClient.EXPECT().SMembers(gomock.Any(), "ns:tag:news").Return(redis.NewStringSliceResult([]string{"a", "b"}, nil)),
		mockClient.EXPECT().Del(gomock.Any(), "a", "b").Return(redis.NewIntResult(2, nil)),
		mockClient.EXPECT().Del(gomock.Any(), "ns:tag:news").Return(redis.NewIntResult(1, nil)),
		mockClient.EXPECT().SMembers(gomock.Any(), "ns:tag:empty").Return(redis.NewStringSliceResult(nil, nil)),
		mockClient.EXPECT().Del(gomock.Any(), "ns:tag:empty").Return(redis.NewIntResult(0, nil)),
	)

	assert.NoError(t, cache.PurgeTags(context.Background(), "news", "empty"))
}

func TestKeyDBCache_Close(t *testing.T) {
	cache, mockClient := newTestKeyDBCache(t)

	mockClient.EXPECT().Close().Return(nil)
	assert.NoError(t, cache.Close())
}
