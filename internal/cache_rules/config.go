package cache_rules

import (
	"time"

	"go.uber.org/zap"

	"go-reliable-fetch/internal/models"
)

// Policy turns a validity into the physical lifetime of a cache entry
type Policy struct {
	config PolicyConfig
	logger *zap.Logger
}

// NewPolicy creates a new Policy. Unset fields take their defaults.
func NewPolicy(config PolicyConfig, logger *zap.Logger) *Policy {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CleanupHorizon > 0 {
		logger.Debug("Cleanup horizon configured, multiplier ignored",
			zap.Int64("cleanup_horizon", config.CleanupHorizon))
	}
	return &Policy{
		config: config,
		logger: logger,
	}
}

// DefaultTTL returns the validity used when nothing else decides it
func (p *Policy) DefaultTTL() int64 {
	return p.config.DefaultTTL
}

// HardExpiry returns the physical lifetime in seconds for a validity. Never below validity.
func (p *Policy) HardExpiry(validitySeconds int64) int64 {
	if validitySeconds <= 0 {
		return 0
	}

	if p.config.CleanupHorizon > 0 {
		if p.config.CleanupHorizon > validitySeconds {
			return p.config.CleanupHorizon
		}
		return validitySeconds
	}

	return validitySeconds * p.config.HardExpiryMultiplier
}

// TTL splits a validity into fresh and stale lifetimes
func (p *Policy) TTL(validitySeconds int64) models.TTL {
	if validitySeconds <= 0 {
		return models.TTL{}
	}
	hard := p.HardExpiry(validitySeconds)
	return models.TTL{
		Fresh: time.Duration(validitySeconds) * time.Second,
		Stale: time.Duration(hard-validitySeconds) * time.Second,
	}
}
