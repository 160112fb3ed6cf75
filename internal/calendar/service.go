package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/weekrev/weekrev/internal/resilience"
)

// Service wraps the Fetcher with the cache and circuit breaker so repeated
// analysis calls inside the TTL reuse one fan-out, and an upstream outage
// degrades to the last fetched events.
type Service struct {
	fetcher *Fetcher
	guard   *resilience.Guard
	health  *resilience.HealthMonitor
}

// NewService builds the resilient wrapper. The probe should be a cheap
// reachability check such as Client.Ping for one connected account.
func NewService(fetcher *Fetcher, guard *resilience.Guard, probe resilience.ProbeFunc, opts ...resilience.HealthOption) *Service {
	return &Service{
		fetcher: fetcher,
		guard:   guard,
		health:  resilience.NewHealthMonitor(ServiceName, probe, opts...),
	}
}

// Guard exposes the underlying resilience guard for status reporting.
func (s *Service) Guard() *resilience.Guard {
	return s.guard
}

// Healthy reports debounced service reachability.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.health.Check(ctx)
}

// EventsWithFallback runs a multi-account fetch under the guard. A fetch
// whose fan-out partially failed still caches, since its events are real;
// an account-listing failure or a fan-out where every calendar failed counts
// against the breaker and falls back to previously cached events.
func (s *Service) EventsWithFallback(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	key := resilience.Key("events",
		"start="+formatWindow(opts.Start),
		"end="+formatWindow(opts.End),
		"filter="+strings.Join(opts.FilterCalendars, ","),
		"exclude="+strings.Join(opts.ExcludeCalendars, ","))

	return resilience.Execute(ctx, s.guard, "fetch_events", resilience.Policy[*FetchResult]{
		CacheKey: key,
	}, func(ctx context.Context) (*FetchResult, error) {
		return s.fetcher.FetchAll(ctx, opts)
	})
}

func formatWindow(t time.Time) string {
	if t.IsZero() {
		return "default"
	}
	return t.UTC().Format(time.RFC3339)
}
