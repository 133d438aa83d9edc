package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-reliable-fetch/internal/cache_rules"
)

// Cache engines selectable through cache.engine
const (
	EngineNoCache = "nocache"
	EngineMemory  = "memory"
	EngineRedis   = "redis"
)

const DefaultKeyDBURL = "redis://localhost:6379"

// Config represents the main configuration structure
type Config struct {
	Cache          CacheConfig              `yaml:"cache"`
	BigCache       BigCacheConfig           `yaml:"bigcache"`
	KeyDB          KeyDBConfig              `yaml:"keydb"`
	CacheRules     cache_rules.PolicyConfig `yaml:"cache_rules"`
	CircuitBreaker CircuitBreakerConfig     `yaml:"circuit_breaker"`
	Fetch          FetchConfig              `yaml:"fetch"`
}

// CacheConfig selects the cache backend
type CacheConfig struct {
	Engine     string `yaml:"engine" validate:"oneof=nocache memory redis"`
	Namespace  string `yaml:"namespace"`
	APIEnabled bool   `yaml:"api_enabled"`
}

// BigCacheConfig configures the in-process cache
type BigCacheConfig struct {
	Enabled         bool `yaml:"enabled"`
	Size            int  `yaml:"size" validate:"gte=0"`             // MB
	MaxEntrySize    int  `yaml:"max_entry_size" validate:"gte=0"`   // bytes
	CleanWindow     int  `yaml:"clean_window" validate:"gte=0"`     // milliseconds
	MetricsInterval int  `yaml:"metrics_interval" validate:"gte=0"` // milliseconds
	LifeWindow      int  `yaml:"life_window" validate:"gte=0"`      // milliseconds, upper bound of any entry lifetime
}

// GetCleanWindow returns the clean window as time.Duration
func (b *BigCacheConfig) GetCleanWindow() time.Duration {
	return time.Duration(b.CleanWindow) * time.Millisecond
}

// GetMetricsInterval returns the metrics interval as time.Duration
func (b *BigCacheConfig) GetMetricsInterval() time.Duration {
	return time.Duration(b.MetricsInterval) * time.Millisecond
}

// GetLifeWindow returns the life window as time.Duration
func (b *BigCacheConfig) GetLifeWindow() time.Duration {
	return time.Duration(b.LifeWindow) * time.Millisecond
}

// KeyDBConfig configures the Redis-compatible cache
type KeyDBConfig struct {
	URL               string           `yaml:"url"`
	Connection        ConnectionConfig `yaml:"connection"`
	Keepalive         KeepaliveConfig  `yaml:"keepalive"`
	CompressThreshold int              `yaml:"compress_threshold"` // bytes, negative disables compression
}

// ConnectionConfig holds KeyDB timeouts in milliseconds
type ConnectionConfig struct {
	ConnectTimeout int `yaml:"connect_timeout" validate:"gte=0"`
	SendTimeout    int `yaml:"send_timeout" validate:"gte=0"`
	ReadTimeout    int `yaml:"read_timeout" validate:"gte=0"`
}

// KeepaliveConfig holds KeyDB pool settings
type KeepaliveConfig struct {
	PoolSize       int `yaml:"pool_size" validate:"gte=0"`
	MaxIdleTimeout int `yaml:"max_idle_timeout" validate:"gte=0"` // milliseconds
}

// CircuitBreakerConfig configures the per-upstream breakers
type CircuitBreakerConfig struct {
	Enabled         bool  `yaml:"enabled"`
	WindowDuration  int   `yaml:"window_duration" validate:"gte=0"` // milliseconds
	NumBuckets      int   `yaml:"num_buckets" validate:"gte=0"`
	ErrorThreshold  int   `yaml:"error_threshold" validate:"gte=0,lte=100"` // percent
	VolumeThreshold int   `yaml:"volume_threshold" validate:"gte=0"`
	IncludePath     *bool `yaml:"include_path"`
}

// FetchConfig holds defaults applied to every request
type FetchConfig struct {
	Timeout         int               `yaml:"timeout" validate:"gte=0"` // milliseconds
	FollowRedirects *bool             `yaml:"follow_redirects"`
	Headers         map[string]string `yaml:"headers"`
}

var validate = validator.New()

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Cache.Engine == "" {
		c.Cache.Engine = EngineMemory
	}

	if c.BigCache.Size == 0 {
		c.BigCache.Size = 100
	}
	if c.BigCache.MaxEntrySize == 0 {
		c.BigCache.MaxEntrySize = 1024 * 1024
	}
	if c.BigCache.CleanWindow == 0 {
		c.BigCache.CleanWindow = 60000
	}
	if c.BigCache.MetricsInterval == 0 {
		c.BigCache.MetricsInterval = 30000
	}
	if c.BigCache.LifeWindow == 0 {
		c.BigCache.LifeWindow = 24 * 60 * 60 * 1000
	}

	if c.KeyDB.URL == "" {
		c.KeyDB.URL = DefaultKeyDBURL
	}
	if c.KeyDB.Connection.ConnectTimeout == 0 {
		c.KeyDB.Connection.ConnectTimeout = 1000
	}
	if c.KeyDB.Connection.SendTimeout == 0 {
		c.KeyDB.Connection.SendTimeout = 1000
	}
	if c.KeyDB.Connection.ReadTimeout == 0 {
		c.KeyDB.Connection.ReadTimeout = 1000
	}
	if c.KeyDB.Keepalive.PoolSize == 0 {
		c.KeyDB.Keepalive.PoolSize = 10
	}
	if c.KeyDB.Keepalive.MaxIdleTimeout == 0 {
		c.KeyDB.Keepalive.MaxIdleTimeout = 10000
	}
	if c.KeyDB.CompressThreshold == 0 {
		c.KeyDB.CompressThreshold = 1024
	}

	c.CacheRules.ApplyDefaults()

	if c.CircuitBreaker.WindowDuration == 0 {
		c.CircuitBreaker.WindowDuration = 5000
	}
	if c.CircuitBreaker.NumBuckets == 0 {
		c.CircuitBreaker.NumBuckets = 5
	}
	if c.CircuitBreaker.ErrorThreshold == 0 {
		c.CircuitBreaker.ErrorThreshold = 50
	}
	if c.CircuitBreaker.VolumeThreshold == 0 {
		c.CircuitBreaker.VolumeThreshold = 10
	}
	if c.CircuitBreaker.IncludePath == nil {
		includePath := true
		c.CircuitBreaker.IncludePath = &includePath
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 5000
	}
	if c.Fetch.FollowRedirects == nil {
		follow := true
		c.Fetch.FollowRedirects = &follow
	}
}

// GetConnectTimeout returns KeyDB connect timeout as time.Duration
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.KeyDB.Connection.ConnectTimeout) * time.Millisecond
}

// GetSendTimeout returns KeyDB send timeout as time.Duration
func (c *Config) GetSendTimeout() time.Duration {
	return time.Duration(c.KeyDB.Connection.SendTimeout) * time.Millisecond
}

// GetReadTimeout returns KeyDB read timeout as time.Duration
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.KeyDB.Connection.ReadTimeout) * time.Millisecond
}

// GetMaxIdleTimeout returns KeyDB max idle timeout as time.Duration
func (c *Config) GetMaxIdleTimeout() time.Duration {
	return time.Duration(c.KeyDB.Keepalive.MaxIdleTimeout) * time.Millisecond
}

// GetBreakerWindow returns the circuit breaker window as time.Duration
func (c *Config) GetBreakerWindow() time.Duration {
	return time.Duration(c.CircuitBreaker.WindowDuration) * time.Millisecond
}

// GetFetchTimeout returns the default request timeout as time.Duration
func (c *Config) GetFetchTimeout() time.Duration {
	return time.Duration(c.Fetch.Timeout) * time.Millisecond
}

// BreakerIncludesPath reports whether breaker keys carry the url path
func (c *Config) BreakerIncludesPath() bool {
	return c.CircuitBreaker.IncludePath == nil || *c.CircuitBreaker.IncludePath
}

// FollowsRedirects reports whether the transport follows 3xx responses
func (c *Config) FollowsRedirects() bool {
	return c.Fetch.FollowRedirects == nil || *c.Fetch.FollowRedirects
}
