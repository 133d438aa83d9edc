package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stat suffixes emitted by the fetch pipeline. Anything else is reported as "other".
var knownStats = map[string]struct{}{
	"requests":     {},
	"responseTime": {},
	"error":        {},
	"cacheHit":     {},
	"cacheMiss":    {},
	"cacheSet":     {},
	"cacheError":   {},
	"dedupe":       {},
	"fallbackHit":  {},
	"fallbackMiss": {},
}

var (
	// Fetch pipeline counters, one series per stat suffix
	FetchStats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_stats_total",
			Help: "Total number of fetch pipeline events by stat",
		},
		[]string{"stat"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_duration_seconds",
			Help:    "Duration of fetches as seen by the caller",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stat"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"level"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"level"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"level", "kind"},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Duration of cache operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "level"},
	)

	// L1 capacity metrics only (in-memory)
	CacheCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_capacity_bytes",
			Help: "L1 cache capacity in bytes",
		},
		[]string{"level"},
	)

	CacheUsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_used_bytes",
			Help: "L1 cache used space in bytes",
		},
		[]string{"level"},
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_keys",
			Help: "Number of keys held by a cache level",
		},
		[]string{"level"},
	)

	// 0 closed, 1 open, 2 half-open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per upstream key",
		},
		[]string{"key"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"state"},
	)
)

// normalizeStat reduces a full stat name such as "fetch.a_com.cacheHit" to a bounded label
func normalizeStat(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if _, ok := knownStats[name]; ok {
		return name
	}
	return "other"
}

// RecordFetchStat records a pipeline counter increment
func RecordFetchStat(name string, value float64) {
	FetchStats.WithLabelValues(normalizeStat(name)).Add(value)
}

// RecordFetchTiming records a pipeline timing given in milliseconds
func RecordFetchTiming(name string, millis float64) {
	FetchDuration.WithLabelValues(normalizeStat(name)).Observe(millis / 1000)
}

// RecordCacheHit records a cache hit
func RecordCacheHit(level string) {
	CacheHits.WithLabelValues(level).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(level string) {
	CacheMisses.WithLabelValues(level).Inc()
}

// RecordCacheError records a backend failure of the given kind (encode, decode, upstream)
func RecordCacheError(level, kind string) {
	CacheErrors.WithLabelValues(level, kind).Inc()
}

// UpdateL1CacheCapacity updates L1 cache capacity metrics only
func UpdateL1CacheCapacity(capacity, used int64) {
	CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
	CacheUsed.WithLabelValues("l1").Set(float64(used))
}

// UpdateCacheKeys updates the key count of a cache level
func UpdateCacheKeys(level string, count int64) {
	CacheKeys.WithLabelValues(level).Set(float64(count))
}

// TimeCacheOperation returns a timer function for measuring cache operation duration
func TimeCacheOperation(operation, level string) func() {
	start := time.Now()
	return func() {
		CacheOperationDuration.WithLabelValues(operation, level).Observe(time.Since(start).Seconds())
	}
}

// UpdateBreakerState publishes the numeric state of a breaker
func UpdateBreakerState(key string, state int) {
	BreakerState.WithLabelValues(key).Set(float64(state))
}

// RecordBreakerTransition counts a breaker entering state
func RecordBreakerTransition(state string) {
	BreakerTransitions.WithLabelValues(state).Inc()
}
