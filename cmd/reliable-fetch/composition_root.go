package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	reliablefetch "go-reliable-fetch"
	"go-reliable-fetch/internal/cache"
	"go-reliable-fetch/internal/cache/service"
	"go-reliable-fetch/internal/cache_rules"
	"go-reliable-fetch/internal/config"
	"go-reliable-fetch/internal/httpserver"
)

const defaultConfigPath = "/app/reliable_fetch.yaml"

// CompositionRoot holds all application dependencies and is the single
// place where they are created, wired and released.
type CompositionRoot struct {
	Config *config.Config
	Logger *zap.Logger

	Client       *reliablefetch.Client
	CacheService *service.CacheService
	HTTPServer   *httpserver.Server
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Logger
// 2. Configuration
// 3. Fetch client (cache store, transport, event sinks)
// 4. Cache API service, when enabled
// 5. HTTP server
func NewCompositionRoot(configPath string, logger *zap.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{Logger: logger}

	if root.Logger == nil {
		if err := root.initLogger(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	if err := root.loadConfig(configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := root.initClient(); err != nil {
		return nil, fmt.Errorf("failed to initialize fetch client: %w", err)
	}

	root.initServices()
	root.initHTTPServer()

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the flag path, then CACHE_CONFIG_FILE, then the default
// location. Only the default location may be absent.
func (r *CompositionRoot) loadConfig(configPath string) error {
	if configPath == "" {
		configPath = os.Getenv("CACHE_CONFIG_FILE")
	}
	if configPath == "" {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, os.ErrNotExist) {
			r.Logger.Info("No configuration file, using defaults")
			r.Config = config.Default()
			r.Config.KeyDB.URL = GetKeyDBURL(r.Logger, "")
			return nil
		}
		configPath = defaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}
	cfg.KeyDB.URL = GetKeyDBURL(r.Logger, cfg.KeyDB.URL)

	r.Config = cfg
	return nil
}

// initClient builds the fetch client and its cache store
func (r *CompositionRoot) initClient() error {
	client, err := reliablefetch.New(r.Config, r.Logger)
	if err != nil {
		return err
	}
	r.Client = client
	return nil
}

// initServices enables the cache API for the redis engine only
func (r *CompositionRoot) initServices() {
	if r.Config.Cache.Engine != config.EngineRedis || !r.Config.Cache.APIEnabled {
		r.Logger.Info("Cache API disabled", zap.String("engine", r.Config.Cache.Engine))
		return
	}

	policy := cache_rules.NewPolicy(r.Config.CacheRules, r.Logger)
	r.CacheService = service.NewCacheService(
		r.Client.Cache(),
		cache.NewKeyBuilder(r.Config.Cache.Namespace),
		cache_rules.NewClassifier(r.Logger, policy),
		r.Logger,
	)
}

// initHTTPServer initializes the HTTP server
func (r *CompositionRoot) initHTTPServer() {
	r.HTTPServer = httpserver.NewServer(r.CacheService, r.breakerStatus, r.Logger)
}

func (r *CompositionRoot) breakerStatus() map[string]string {
	states := r.Client.BreakerStates()
	if len(states) == 0 {
		return nil
	}
	status := make(map[string]string, len(states))
	for key, state := range states {
		status["breaker:"+key] = state
	}
	return status
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errs []error

	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}

	// Sync logger
	if r.Logger != nil {
		// stderr/stdout sync errors are expected on some platforms
		_ = r.Logger.Sync()
	}

	return errors.Join(errs...)
}

// GetSocketPath returns the Unix socket path for the server
func (r *CompositionRoot) GetSocketPath() string {
	socketPath := os.Getenv("CACHE_SOCKET_PATH")
	if socketPath == "" {
		socketPath = "/tmp/reliable-fetch.sock"
	}
	return socketPath
}
