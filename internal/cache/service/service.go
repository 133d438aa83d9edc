package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/metrics"
	"go-reliable-fetch/internal/models"
)

var (
	ErrMissingKey    = errors.New("no key provided")
	ErrMissingMaxAge = errors.New("maxAge must be a positive number of seconds")
)

// CacheService exposes manual cache operations under the configured namespace
type CacheService struct {
	cache      interfaces.Cache
	keyBuilder interfaces.KeyBuilder
	classifier interfaces.ValidityClassifier
	logger     *zap.Logger
	clock      clock.Clock
}

// NewCacheService creates a new cache service instance
func NewCacheService(cache interfaces.Cache, keyBuilder interfaces.KeyBuilder, classifier interfaces.ValidityClassifier, logger *zap.Logger) *CacheService {
	return &CacheService{
		cache:      cache,
		keyBuilder: keyBuilder,
		classifier: classifier,
		logger:     logger,
		clock:      clock.New(),
	}
}

// GetResponse represents the result of a cache get operation
type GetResponse struct {
	Key       string      `json:"key"`
	Content   string      `json:"content"`
	Headers   http.Header `json:"headers,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
	Fresh     bool        `json:"fresh"`
	CreatedAt int64       `json:"created_at"`
	StaleAt   int64       `json:"stale_at"`
	ExpiresAt int64       `json:"expires_at"`
}

// Get returns the entry stored at key, fresh or stale
func (s *CacheService) Get(ctx context.Context, key string) (*GetResponse, bool, error) {
	if key == "" {
		return nil, false, ErrMissingKey
	}

	entry, found, err := s.cache.Get(ctx, s.keyBuilder.Namespaced(key))
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	return &GetResponse{
		Key:       key,
		Content:   string(entry.Content),
		Headers:   entry.Headers,
		Tags:      entry.Tags,
		Fresh:     entry.IsFreshAt(s.clock.Now()),
		CreatedAt: entry.CreatedAt,
		StaleAt:   entry.StaleAt,
		ExpiresAt: entry.ExpiresAt,
	}, true, nil
}

// Set stores content at key, valid for maxAge seconds and kept for fallback per the policy
func (s *CacheService) Set(ctx context.Context, key string, content []byte, maxAge int64, tags []string) error {
	if key == "" {
		return ErrMissingKey
	}
	if maxAge <= 0 {
		return ErrMissingMaxAge
	}

	namespaced := s.keyBuilder.Namespaced(key)
	ttl := s.classifier.TTLForValidity(maxAge)

	entry := models.NewCacheEntry(namespaced, content, nil, s.clock.Now(), ttl)
	entry.Tags = tags
	entry.Options = &models.RequestOptions{
		URL:      models.CacheURL,
		CacheKey: key,
		CacheTTL: (time.Duration(maxAge) * time.Second).Milliseconds(),
		Tags:     tags,
	}

	if err := s.cache.Set(ctx, namespaced, entry, ttl); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}

	s.logger.Info("Cache entry set manually",
		zap.String("key", namespaced),
		zap.Int64("max_age", maxAge),
		zap.Strings("tags", tags))
	return nil
}

// Delete removes the entry at key. Missing keys are not an error.
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrMissingKey
	}

	namespaced := s.keyBuilder.Namespaced(key)
	if err := s.cache.Delete(ctx, namespaced); err != nil {
		metrics.RecordCacheError("api", "delete")
		return fmt.Errorf("cache delete failed: %w", err)
	}

	s.logger.Info("Cache entry deleted manually", zap.String("key", namespaced))
	return nil
}

// PurgeTag removes every entry recorded under tag
func (s *CacheService) PurgeTag(ctx context.Context, tag string) error {
	if tag == "" {
		return ErrMissingKey
	}

	if err := s.cache.PurgeTags(ctx, tag); err != nil {
		metrics.RecordCacheError("api", "purge")
		return fmt.Errorf("cache purge failed: %w", err)
	}

	s.logger.Info("Cache tag purged manually", zap.String("tag", tag))
	return nil
}
