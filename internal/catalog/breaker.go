package catalog

import (
	"errors"
	"sync"
	"time"

	"github.com/stwalsh4118/lineup/internal/logger"
)

// BreakerState is the state of a lookup circuit breaker
type BreakerState int

const (
	// BreakerClosed lets lookups through
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects lookups until the reset timeout passes
	BreakerOpen
	// BreakerHalfOpen lets one probe lookup through
	BreakerHalfOpen
)

// String returns the string representation of BreakerState
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned without calling the catalog while the breaker is open
var ErrBreakerOpen = errors.New("catalog lookups suspended: circuit breaker is open")

// Breaker trips after consecutive lookup failures so that a hung or failing
// catalog backend fails fast instead of costing a full timeout per draw.
type Breaker struct {
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive failures
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        BreakerClosed,
	}
}

// Allow reports whether a lookup may proceed, moving Open to HalfOpen once the reset timeout passes
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Sub(b.lastFailure) < b.resetTimeout {
			return ErrBreakerOpen
		}
		b.transitionLocked(BreakerHalfOpen)
		b.failures = 0
	}
	return nil
}

// Record feeds the outcome of a lookup back into the breaker
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == BreakerHalfOpen {
			b.transitionLocked(BreakerClosed)
		}
		return
	}

	b.failures++
	b.lastFailure = b.now()
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.transitionLocked(BreakerOpen)
	}
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) transitionLocked(to BreakerState) {
	if b.state == to {
		return
	}
	logger.Log.Warn().
		Str("component", "catalog").
		Str("from", b.state.String()).
		Str("to", to.String()).
		Int("failures", b.failures).
		Msg("Catalog circuit breaker state change")
	b.state = to
}
