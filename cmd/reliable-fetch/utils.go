package main

import (
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"go-reliable-fetch/internal/config"
)

// GetKeyDBURL returns KeyDB URL with the following priority:
// 1. KEYDB_URL environment variable
// 2. CACHE_KEYDB_URL_FILE file content
// 3. keydb.url from the config file
// 4. Default value
func GetKeyDBURL(logger *zap.Logger, configured string) string {
	// Priority 1: Environment variable
	if keydbURL := os.Getenv("KEYDB_URL"); keydbURL != "" {
		logger.Debug("Using KeyDB URL from environment variable")
		return keydbURL
	}

	// Priority 2: Configurable connection file path
	connectionFile := os.Getenv("CACHE_KEYDB_URL_FILE")
	if connectionFile == "" {
		connectionFile = "/app/.keydb-url"
	}

	if content, err := os.ReadFile(connectionFile); err == nil {
		keydbURL := strings.TrimSpace(string(content))
		if len(keydbURL) > 0 {
			logger.Debug("Using KeyDB URL from connection file", zap.String("file", connectionFile))
			return keydbURL
		}
	} else {
		logger.Debug("KeyDB connection file not found or empty", zap.String("file", connectionFile))
	}

	// Priority 3: Config
	if configured != "" {
		logger.Debug("Using KeyDB URL from config")
		return configured
	}

	logger.Debug("Using default KeyDB URL")
	return config.DefaultKeyDBURL
}

// parseHeaders turns "Name: value" flags into a header map
func parseHeaders(values []string) http.Header {
	if len(values) == 0 {
		return nil
	}
	headers := make(http.Header, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		if !ok {
			continue
		}
		headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return headers
}
