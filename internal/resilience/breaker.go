package resilience

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit breaker states.
type BreakerState int

const (
	// StateClosed is normal operation; calls pass through.
	StateClosed BreakerState = iota
	// StateOpen fails fast; no calls are attempted until the recovery
	// timeout elapses.
	StateOpen
	// StateHalfOpen allows trial calls to probe recovery.
	StateHalfOpen
)

// String returns the lowercase state name for logs and metrics.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold is the consecutive-failure count that opens
	// the circuit.
	DefaultFailureThreshold = 5

	// DefaultRecoveryTimeout is how long the circuit stays open before a
	// trial call is allowed.
	DefaultRecoveryTimeout = 5 * time.Minute

	// DefaultSuccessThreshold is the number of half-open successes required
	// to close the circuit again.
	DefaultSuccessThreshold = 3
)

// CircuitBreaker is a three-state failure detector gating whether new calls
// to an upstream should be attempted. One long-lived instance guards each
// upstream service; every method is an atomic read-modify-write under a
// single mutex.
type CircuitBreaker struct {
	mu sync.Mutex

	state            BreakerState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	failureThreshold int
	recoveryTimeout  time.Duration
	successThreshold int

	// onTransition, if set, observes state changes (for metrics/logs).
	onTransition func(from, to BreakerState)

	now func() time.Time
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets the consecutive-failure count that opens the circuit.
func WithFailureThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.failureThreshold = n }
}

// WithRecoveryTimeout sets how long the circuit stays open before a trial call.
func WithRecoveryTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) { cb.recoveryTimeout = d }
}

// WithSuccessThreshold sets the half-open successes required to close.
func WithSuccessThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.successThreshold = n }
}

// WithTransitionHook registers a callback invoked on every state change.
func WithTransitionHook(fn func(from, to BreakerState)) BreakerOption {
	return func(cb *CircuitBreaker) { cb.onTransition = fn }
}

// WithBreakerClock overrides the time source; used by tests.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// NewCircuitBreaker creates a closed breaker with default thresholds.
func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: DefaultFailureThreshold,
		recoveryTimeout:  DefaultRecoveryTimeout,
		successThreshold: DefaultSuccessThreshold,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// CanExecute reports whether a call should be attempted. When the circuit is
// open and the recovery timeout has elapsed, the breaker moves to half-open
// and allows a trial call.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.recoveryTimeout {
			cb.transitionLocked(StateHalfOpen)
			cb.successCount = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess resets the failure count and, in half-open state, counts the
// success toward closing the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transitionLocked(StateClosed)
		}
	}
}

// RecordFailure counts a failure toward opening the circuit. A failure while
// half-open reopens the circuit immediately: the trial call exists to probe
// recovery, and its failure means the upstream is still broken.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.transitionLocked(StateOpen)
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the current failure and success counters, for health
// reporting.
func (cb *CircuitBreaker) Counts() (failures, successes int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount, cb.successCount
}

func (cb *CircuitBreaker) transitionLocked(to BreakerState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	if cb.onTransition != nil {
		cb.onTransition(from, to)
	}
}
