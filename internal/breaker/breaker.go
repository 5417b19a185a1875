// Package breaker implements a per-adapter circuit breaker. The state
// machine is purely time-driven: OPEN decays to HALF_OPEN lazily when the
// state is next observed, so no background goroutines are needed.
package breaker

import (
	"sync"
	"time"
)

// State is the breaker position.
type State string

// Breaker states.
const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Defaults applied when a zero value is configured.
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
)

// Breaker is a CLOSED/OPEN/HALF_OPEN state machine guarding one adapter
// instance. All methods are safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	resetTimeout     time.Duration

	state    State
	failures int       // consecutive failures while CLOSED
	openedAt time.Time // set on CLOSED->OPEN and HALF_OPEN->OPEN
	probing  bool      // a half-open probe is in flight

	// now is swappable for tests.
	now func() time.Time
}

// New creates a breaker. Zero arguments select the defaults
// (threshold 5, reset 60s).
func New(failureThreshold int, resetTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = DefaultResetTimeout
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            Closed,
		now:              time.Now,
	}
}

// State returns the current state, transitioning OPEN to HALF_OPEN when the
// reset timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Breaker) stateLocked() State {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.resetTimeout {
		b.state = HalfOpen
		b.probing = false
	}
	return b.state
}

// IsOpen reports whether calls must be skipped right now.
func (b *Breaker) IsOpen() bool {
	return b.State() == Open
}

// Allow reports whether a call may proceed. CLOSED always allows;
// HALF_OPEN allows exactly one probe until that probe resolves via
// RecordSuccess or RecordFailure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case Closed:
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess notes a successful call. In HALF_OPEN this closes the
// breaker; in CLOSED it resets the consecutive-failure counter.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case HalfOpen:
		b.state = Closed
		b.failures = 0
		b.probing = false
	case Closed:
		b.failures = 0
	}
}

// RecordFailure notes a failed call. In CLOSED it increments the counter
// and opens the breaker at the threshold; in HALF_OPEN the probe failure
// re-opens with a fresh openedAt.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case HalfOpen:
		b.state = Open
		b.openedAt = b.now()
		b.probing = false
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = Open
			b.openedAt = b.now()
		}
	}
}

// Failures returns the consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
