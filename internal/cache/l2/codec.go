package l2

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/golang/snappy"

	"go-reliable-fetch/internal/models"
)

// record is the JSON document stored per key. Content is kept as-is; headers and
// options are nested JSON strings so other readers of the keyspace can treat them
// opaquely. Compressed or non UTF-8 bodies go to content_z instead.
type record struct {
	Content    string   `json:"content"`
	ContentZ   []byte   `json:"content_z,omitempty"`
	Headers    string   `json:"headers,omitempty"`
	Options    string   `json:"options,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  int64    `json:"created_at"`
	StaleAt    int64    `json:"stale_at"`
	ExpiresAt  int64    `json:"expires_at"`
	Compressed bool     `json:"compressed,omitempty"`
}

// encodeEntry serializes entry, compressing content larger than threshold bytes.
// A negative threshold disables compression.
func encodeEntry(entry *models.CacheEntry, threshold int) ([]byte, error) {
	rec := record{
		Tags:      entry.Tags,
		CreatedAt: entry.CreatedAt,
		StaleAt:   entry.StaleAt,
		ExpiresAt: entry.ExpiresAt,
	}

	switch {
	case threshold >= 0 && len(entry.Content) > threshold:
		rec.ContentZ = snappy.Encode(nil, entry.Content)
		rec.Compressed = true
	case !utf8.Valid(entry.Content):
		rec.ContentZ = entry.Content
	default:
		rec.Content = string(entry.Content)
	}

	if entry.Headers != nil {
		headers, err := json.Marshal(entry.Headers)
		if err != nil {
			return nil, fmt.Errorf("failed to encode headers: %w", err)
		}
		rec.Headers = string(headers)
	}

	if entry.Options != nil {
		options, err := json.Marshal(entry.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		rec.Options = string(options)
	}

	return json.Marshal(rec)
}

// decodeEntry is the inverse of encodeEntry
func decodeEntry(key string, data []byte) (*models.CacheEntry, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}

	content := []byte(rec.Content)
	switch {
	case rec.Compressed:
		decoded, err := snappy.Decode(nil, rec.ContentZ)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress content: %w", err)
		}
		content = decoded
	case rec.ContentZ != nil:
		content = rec.ContentZ
	}

	entry := &models.CacheEntry{
		Key:       key,
		Content:   content,
		Tags:      rec.Tags,
		CreatedAt: rec.CreatedAt,
		StaleAt:   rec.StaleAt,
		ExpiresAt: rec.ExpiresAt,
	}

	if rec.Headers != "" {
		var headers http.Header
		if err := json.Unmarshal([]byte(rec.Headers), &headers); err != nil {
			return nil, fmt.Errorf("failed to decode headers: %w", err)
		}
		entry.Headers = headers
	}

	if rec.Options != "" {
		var options models.RequestOptions
		if err := json.Unmarshal([]byte(rec.Options), &options); err != nil {
			return nil, fmt.Errorf("failed to decode options: %w", err)
		}
		entry.Options = &options
	}

	return entry, nil
}
