package cache_rules

const (
	// DefaultTTLSeconds is used when neither the response nor the request carries a validity
	DefaultTTLSeconds int64 = 60
	// DefaultHardExpiryMultiplier stretches the validity into the physical lifetime
	DefaultHardExpiryMultiplier int64 = 5
)

// PolicyConfig represents the validity policy configuration
type PolicyConfig struct {
	DefaultTTL           int64 `yaml:"default_ttl" validate:"gte=0"`            // seconds
	HardExpiryMultiplier int64 `yaml:"hard_expiry_multiplier" validate:"gte=0"` // validity x multiplier
	CleanupHorizon       int64 `yaml:"cleanup_horizon" validate:"gte=0"`        // seconds, overrides the multiplier when set
}

// ApplyDefaults fills unset fields
func (c *PolicyConfig) ApplyDefaults() {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = DefaultTTLSeconds
	}
	if c.HardExpiryMultiplier <= 0 {
		c.HardExpiryMultiplier = DefaultHardExpiryMultiplier
	}
}
