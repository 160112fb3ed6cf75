package resilience

import (
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(WithFailureThreshold(5))

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after 4 failures, want closed", cb.State())
	}
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("state = %v after 5 failures, want open", cb.State())
	}
	if cb.CanExecute() {
		t.Error("open breaker should reject execution")
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(WithFailureThreshold(5))

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	cb.RecordSuccess()
	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed; success should reset the streak", cb.State())
	}
}

func TestBreakerHalfOpenAfterRecoveryTimeout(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(
		WithFailureThreshold(1),
		WithRecoveryTimeout(5*time.Minute),
		WithBreakerClock(func() time.Time { return now }),
	)

	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatal("expected open breaker to reject")
	}

	now = now.Add(5*time.Minute + time.Second)
	if !cb.CanExecute() {
		t.Fatal("expected probe allowed after recovery timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %v, want half_open", cb.State())
	}
}

func TestBreakerHalfOpenClosesAfterSuccesses(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(
		WithFailureThreshold(1),
		WithRecoveryTimeout(time.Minute),
		WithSuccessThreshold(3),
		WithBreakerClock(func() time.Time { return now }),
	)

	cb.RecordFailure()
	now = now.Add(2 * time.Minute)
	cb.CanExecute()

	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after 2 successes, want half_open", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("state = %v after 3 successes, want closed", cb.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(
		WithFailureThreshold(5),
		WithRecoveryTimeout(time.Minute),
		WithBreakerClock(func() time.Time { return now }),
	)

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	now = now.Add(2 * time.Minute)
	cb.CanExecute()
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half_open", cb.State())
	}

	cb.RecordSuccess()
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open; one half-open failure reopens", cb.State())
	}
	if cb.CanExecute() {
		t.Error("reopened breaker should reject until the timeout elapses again")
	}
}

func TestBreakerTransitionHook(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	type hop struct{ from, to BreakerState }
	var hops []hop
	cb := NewCircuitBreaker(
		WithFailureThreshold(1),
		WithRecoveryTimeout(time.Minute),
		WithSuccessThreshold(1),
		WithBreakerClock(func() time.Time { return now }),
		WithTransitionHook(func(from, to BreakerState) {
			hops = append(hops, hop{from, to})
		}),
	)

	cb.RecordFailure()
	now = now.Add(2 * time.Minute)
	cb.CanExecute()
	cb.RecordSuccess()

	want := []hop{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(hops) != len(want) {
		t.Fatalf("got %d transitions, want %d: %v", len(hops), len(want), hops)
	}
	for i, w := range want {
		if hops[i] != w {
			t.Errorf("transition %d = %v, want %v", i, hops[i], w)
		}
	}
}

func TestBreakerStateString(t *testing.T) {
	tests := []struct {
		state BreakerState
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
