package main

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"go-reliable-fetch/internal/config"
)

func TestGetKeyDBURL(t *testing.T) {
	logger := zaptest.NewLogger(t)
	missing := filepath.Join(t.TempDir(), "missing")

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("KEYDB_URL", "redis://env:6379")
		assert.Equal(t, "redis://env:6379", GetKeyDBURL(logger, "redis://cfg:6379"))
	})

	t.Run("connection file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), ".keydb-url")
		assert.NoError(t, os.WriteFile(file, []byte("  redis://file:6379\n"), 0600))
		t.Setenv("KEYDB_URL", "")
		t.Setenv("CACHE_KEYDB_URL_FILE", file)
		assert.Equal(t, "redis://file:6379", GetKeyDBURL(logger, "redis://cfg:6379"))
	})

	t.Run("config", func(t *testing.T) {
		t.Setenv("KEYDB_URL", "")
		t.Setenv("CACHE_KEYDB_URL_FILE", missing)
		assert.Equal(t, "redis://cfg:6379", GetKeyDBURL(logger, "redis://cfg:6379"))
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("KEYDB_URL", "")
		t.Setenv("CACHE_KEYDB_URL_FILE", missing)
		assert.Equal(t, config.DefaultKeyDBURL, GetKeyDBURL(logger, ""))
	})
}

func TestParseHeaders(t *testing.T) {
	assert.Nil(t, parseHeaders(nil))

	h := parseHeaders([]string{"accept: application/json", "X-Trace:abc", "broken"})
	assert.Equal(t, http.Header{
		"Accept":  {"application/json"},
		"X-Trace": {"abc"},
	}, h)
}
