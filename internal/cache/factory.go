package cache

import (
	"fmt"

	"go.uber.org/zap"

	"go-reliable-fetch/internal/cache/l1"
	"go-reliable-fetch/internal/cache/l2"
	"go-reliable-fetch/internal/cache/multi"
	"go-reliable-fetch/internal/cache/noop"
	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/interfaces"
)

// KeyDBDialer opens a KeyDB client; replaced in tests
type KeyDBDialer func(cfg *config.Config, keydbURL string, logger *zap.Logger) (interfaces.KeyDbClient, error)

// NewCache builds the store selected by cache.engine
func NewCache(cfg *config.Config, logger *zap.Logger) (interfaces.Cache, error) {
	return NewCacheWithDialer(cfg, logger, l2.NewRedisKeyDbClient)
}

// NewCacheWithDialer is NewCache with an explicit KeyDB dialer
func NewCacheWithDialer(cfg *config.Config, logger *zap.Logger, dial KeyDBDialer) (interfaces.Cache, error) {
	switch cfg.Cache.Engine {
	case config.EngineNoCache:
		logger.Info("Caching disabled")
		return noop.NewNoOpCache(), nil

	case config.EngineMemory, "":
		store, err := l1.NewBigCache(&cfg.BigCache, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize BigCache: %w", err)
		}
		logger.Info("BigCache (L1) initialized", zap.Int("size_mb", cfg.BigCache.Size))
		return store, nil

	case config.EngineRedis:
		client, err := dial(cfg, cfg.KeyDB.URL, logger)
		if err != nil {
			logger.Warn("Failed to connect to KeyDB, falling back to no cache",
				zap.String("keydb_url", redactURL(cfg.KeyDB.URL)),
				zap.Error(err))
			return noop.NewNoOpCache(), nil
		}

		remote := l2.NewKeyDBCache(cfg, client, logger)
		logger.Info("KeyDB (L2) initialized", zap.String("keydb_url", redactURL(cfg.KeyDB.URL)))

		if !cfg.BigCache.Enabled {
			return remote, nil
		}

		near, err := l1.NewBigCache(&cfg.BigCache, logger)
		if err != nil {
			_ = remote.Close()
			return nil, fmt.Errorf("failed to initialize BigCache: %w", err)
		}
		logger.Info("BigCache (L1) placed in front of KeyDB", zap.Int("size_mb", cfg.BigCache.Size))
		return multi.NewMultiCache([]interfaces.Cache{near, remote}, logger), nil

	default:
		return nil, fmt.Errorf("unknown cache engine %q", cfg.Cache.Engine)
	}
}

// redactURL hides the password of a KeyDB URL for logging
func redactURL(keydbURL string) string {
	opts, err := l2.ParseKeyDBURL(keydbURL)
	if err != nil {
		return "<invalid>"
	}
	return opts.Addr
}
