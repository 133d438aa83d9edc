package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=keydb_client.go -destination=mock/keydb_client.go -package=mock

// KeyDbClient defines the interface for KeyDB/Redis client operations
type KeyDbClient interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) *redis.StringCmd

	// Set stores a value with expiration
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) *redis.IntCmd

	// SAdd adds members to a set
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd

	// SMembers lists the members of a set
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd

	// TTL returns the remaining lifetime of a key
	TTL(ctx context.Context, key string) *redis.DurationCmd

	// Expire sets the lifetime of a key
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd

	// Ping tests connectivity
	Ping(ctx context.Context) *redis.StatusCmd

	// Close closes the client connection
	Close() error
}
