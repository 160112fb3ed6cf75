package server

import (
	"context"
	"testing"

	"github.com/weekrev/weekrev/internal/upstream"
)

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	sc := NewServerContext(context.Background(), upstream.NewStaticTokenProvider())
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestTasksServiceForAccountReuse(t *testing.T) {
	sc := newTestServerContext(t)

	a := sc.TasksServiceForAccount("work")
	b := sc.TasksServiceForAccount("work")
	if a != b {
		t.Error("expected the same service instance for repeated lookups")
	}

	other := sc.TasksServiceForAccount("personal")
	if other == a {
		t.Error("expected distinct service instances per account")
	}
}

func TestAccountsShareTaskGuard(t *testing.T) {
	sc := newTestServerContext(t)

	a := sc.TasksServiceForAccount("work")
	b := sc.TasksServiceForAccount("personal")
	if a.Guard() != b.Guard() {
		t.Error("expected accounts to share one breaker and cache")
	}
}

func TestCalendarServiceReuse(t *testing.T) {
	sc := newTestServerContext(t)

	if sc.CalendarService() != sc.CalendarService() {
		t.Error("expected a single calendar service instance")
	}
}

func TestStatusReportsEveryService(t *testing.T) {
	sc := newTestServerContext(t)

	status := sc.Status()
	if len(status) != 2 {
		t.Fatalf("expected 2 services, got %d", len(status))
	}

	seen := map[string]ServiceStatus{}
	for _, s := range status {
		seen[s.Service] = s
	}
	for _, name := range []string{"todoist", "calendar"} {
		s, ok := seen[name]
		if !ok {
			t.Fatalf("missing status for %s", name)
		}
		if s.BreakerState != "closed" {
			t.Errorf("%s: expected closed breaker, got %s", name, s.BreakerState)
		}
		if s.CachedEntries != 0 {
			t.Errorf("%s: expected empty cache, got %d entries", name, s.CachedEntries)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	sc := NewServerContext(context.Background(), upstream.NewStaticTokenProvider())

	if sc.IsShutdown() {
		t.Fatal("fresh context should not be shut down")
	}
	if err := sc.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("context should report shut down")
	}
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second shutdown should be a no-op, got %v", err)
	}
	if sc.Context().Err() == nil {
		t.Error("expected the shared context to be cancelled")
	}
}
