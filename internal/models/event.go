package models

import "time"

// EventKind names a pipeline lifecycle event
type EventKind string

const (
	EventCacheHit          EventKind = "cache-hit"
	EventCacheMiss         EventKind = "cache-miss"
	EventCacheSet          EventKind = "cache-set"
	EventCacheError        EventKind = "cache-error"
	EventDedupeQueue       EventKind = "dedupe-queue"
	EventFallbackCacheHit  EventKind = "fallback-cache-hit"
	EventFallbackCacheMiss EventKind = "fallback-cache-miss"
	EventLogStart          EventKind = "log-start"
	EventLogEnd            EventKind = "log-end"
	EventLogError          EventKind = "log-error"
)

// Level is a log severity understood by event sinks
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// StatKind distinguishes counter increments from timings
type StatKind string

const (
	StatIncrement StatKind = "increment"
	StatTiming    StatKind = "timing"
)

// Event is raised by pipeline stages. Formatting is left to the sink.
type Event struct {
	Kind       EventKind
	Key        string
	URL        string
	StatsdKey  string
	Tracer     string
	Type       string
	StatusCode int
	Timing     time.Duration
	TTL        time.Duration
	Err        error
}

// LevelForStatus maps an upstream status to a log level
func LevelForStatus(status int) Level {
	switch {
	case status >= 500:
		return LevelError
	case status >= 400:
		return LevelWarn
	case status >= 300:
		return LevelInfo
	default:
		return LevelDebug
	}
}
