package breaker

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // requests pass through
	StateOpen                  // requests are rejected immediately
	StateHalfOpen              // a single probe is allowed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	DefaultWindow          = 5000 * time.Millisecond
	DefaultNumBuckets      = 5
	DefaultErrorThreshold  = 50
	DefaultVolumeThreshold = 10
)

// Config tunes a breaker. Zero values fall back to the defaults.
type Config struct {
	Window          time.Duration
	NumBuckets      int
	ErrorThreshold  int // percent of failed calls in the window
	VolumeThreshold int // minimum calls in the window before tripping
}

func (c *Config) applyDefaults() {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.NumBuckets <= 0 {
		c.NumBuckets = DefaultNumBuckets
	}
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = DefaultErrorThreshold
	}
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = DefaultVolumeThreshold
	}
}

type bucket struct {
	successes int
	failures  int
}

// Breaker tracks the outcome of calls to one upstream over a rolling window
// of buckets.
type Breaker struct {
	key    string
	config Config
	clock  clock.Clock

	mu          sync.Mutex
	state       State
	buckets     []bucket
	current     int
	bucketStart time.Time
	openedAt    time.Time
	probing     bool

	onTransition func(key string, from, to State)
}

// New creates a closed breaker
func New(key string, config Config, clk clock.Clock) *Breaker {
	config.applyDefaults()
	if clk == nil {
		clk = clock.New()
	}
	return &Breaker{
		key:         key,
		config:      config,
		clock:       clk,
		buckets:     make([]bucket, config.NumBuckets),
		bucketStart: clk.Now(),
	}
}

// Key returns the upstream key the breaker guards
func (b *Breaker) Key() string {
	return b.key
}

// Permit is handed out by Allow. The call reports its outcome through it so
// that only the probe's own outcome decides a half-open breaker.
type Permit struct {
	breaker *Breaker
	probe   bool
}

// Success records that the permitted call completed without an upstream failure
func (p Permit) Success() {
	if p.breaker != nil {
		p.breaker.record(false, p.probe)
	}
}

// Failure records that the permitted call failed upstream
func (p Permit) Failure() {
	if p.breaker != nil {
		p.breaker.record(true, p.probe)
	}
}

// Allow reports whether a call may proceed. In half-open state only the first
// caller is let through until its outcome is recorded.
func (b *Breaker) Allow() (Permit, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return Permit{breaker: b}, true
	case StateOpen:
		if b.clock.Since(b.openedAt) < b.config.Window {
			return Permit{}, false
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return Permit{breaker: b, probe: true}, true
	case StateHalfOpen:
		if b.probing {
			return Permit{}, false
		}
		b.probing = true
		return Permit{breaker: b, probe: true}, true
	default:
		return Permit{}, false
	}
}

// RecordSuccess records a successful call made without a probe permit
func (b *Breaker) RecordSuccess() {
	b.record(false, false)
}

// RecordFailure records an upstream failure made without a probe permit and
// trips the breaker when the window crosses both thresholds.
func (b *Breaker) RecordFailure() {
	b.record(true, false)
}

// record counts the outcome. While half-open only the probe moves the state;
// calls admitted before the breaker opened are counted and otherwise ignored.
func (b *Breaker) record(failed, probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	if failed {
		b.buckets[b.current].failures++
	} else {
		b.buckets[b.current].successes++
	}

	switch b.state {
	case StateHalfOpen:
		if !probe {
			return
		}
		if failed {
			b.trip()
			return
		}
		b.reset()
		b.transition(StateClosed)
	case StateClosed:
		if !failed {
			return
		}
		total, failures := b.totals()
		if total >= b.config.VolumeThreshold && failures*100 >= b.config.ErrorThreshold*total {
			b.trip()
		}
	}
}

// State returns the current state without advancing it
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	b.transition(StateClosed)
}

func (b *Breaker) trip() {
	b.openedAt = b.clock.Now()
	b.probing = false
	b.transition(StateOpen)
}

func (b *Breaker) reset() {
	for i := range b.buckets {
		b.buckets[i] = bucket{}
	}
	b.current = 0
	b.bucketStart = b.clock.Now()
	b.probing = false
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onTransition != nil {
		b.onTransition(b.key, from, to)
	}
}

// advance rotates the ring so that b.current covers now, clearing the
// buckets that fell out of the window.
func (b *Breaker) advance() {
	width := b.config.Window / time.Duration(len(b.buckets))
	if width <= 0 {
		width = time.Millisecond
	}

	elapsed := b.clock.Now().Sub(b.bucketStart)
	if elapsed < width {
		return
	}

	steps := int(elapsed / width)
	if steps >= len(b.buckets) {
		for i := range b.buckets {
			b.buckets[i] = bucket{}
		}
	} else {
		for i := 0; i < steps; i++ {
			b.current = (b.current + 1) % len(b.buckets)
			b.buckets[b.current] = bucket{}
		}
	}
	b.bucketStart = b.bucketStart.Add(time.Duration(steps) * width)
}

func (b *Breaker) totals() (total, failures int) {
	for _, bk := range b.buckets {
		total += bk.successes + bk.failures
		failures += bk.failures
	}
	return total, failures
}
