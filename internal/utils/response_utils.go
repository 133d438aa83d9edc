package utils

import (
	"net/http"
	"strconv"
	"strings"
)

// blacklistedHeaders never reach a cache entry
var blacklistedHeaders = []string{"Set-Cookie"}

// NoCacheHeaderValue is set on responses fetched with caching disabled
const NoCacheHeaderValue = "no-cache, no-store, must-revalidate"

// FilterHeaders returns a copy of h without headers that must not be cached
func FilterHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	filtered := h.Clone()
	for _, name := range blacklistedHeaders {
		filtered.Del(name)
	}
	return filtered
}

// HasCacheControl reports whether the Cache-Control header carries directive
func HasCacheControl(h http.Header, directive string) bool {
	_, ok := cacheControlDirectives(h)[directive]
	return ok
}

// MaxAge returns the max-age directive in seconds, if present and valid
func MaxAge(h http.Header) (int64, bool) {
	value, ok := cacheControlDirectives(h)["max-age"]
	if !ok {
		return 0, false
	}
	seconds, err := strconv.ParseInt(strings.Trim(value, `"`), 10, 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

// cacheControlDirectives parses all Cache-Control values into lowercased directives
func cacheControlDirectives(h http.Header) map[string]string {
	directives := make(map[string]string)
	if h == nil {
		return directives
	}
	for _, line := range h.Values("Cache-Control") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, value, _ := strings.Cut(part, "=")
			directives[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
		}
	}
	return directives
}
