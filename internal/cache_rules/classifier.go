package cache_rules

import (
	"net/http"

	"go.uber.org/zap"

	"go-reliable-fetch/internal/interfaces"
	"go-reliable-fetch/internal/models"
	"go-reliable-fetch/internal/utils"
)

// Classifier implements the ValidityClassifier interface
type Classifier struct {
	logger *zap.Logger
	policy *Policy
}

// Ensure Classifier implements the ValidityClassifier interface
var _ interfaces.ValidityClassifier = (*Classifier)(nil)

// NewClassifier creates a new Classifier instance
func NewClassifier(logger *zap.Logger, policy *Policy) *Classifier {
	if policy == nil {
		panic("policy cannot be nil")
	}
	return &Classifier{
		logger: logger,
		policy: policy,
	}
}

// ValiditySeconds implements ValidityClassifier interface.
// Response Cache-Control wins over the request ttl, which wins over the policy default.
func (c *Classifier) ValiditySeconds(req *models.FetchRequest, status int, headers http.Header) int64 {
	if req == nil || req.IsCacheSentinel() {
		return 0
	}

	if status != http.StatusOK {
		return 0
	}

	if utils.HasCacheControl(headers, "no-cache") || utils.HasCacheControl(headers, "no-store") {
		return 0
	}

	if maxAge, ok := utils.MaxAge(headers); ok {
		if c.logger != nil {
			c.logger.Debug("Using max-age from response",
				zap.String("url", req.URL),
				zap.Int64("max_age", maxAge))
		}
		return maxAge
	}

	if req.CacheTTL != nil {
		return req.CacheTTL.Milliseconds() / 1000
	}

	return c.policy.DefaultTTL()
}

// TTLForValidity implements ValidityClassifier interface
func (c *Classifier) TTLForValidity(validitySeconds int64) models.TTL {
	return c.policy.TTL(validitySeconds)
}
