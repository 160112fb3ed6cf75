package tasks

import (
	"context"

	"github.com/weekrev/weekrev/internal/resilience"
)

// Service wraps a Client with the cache and circuit breaker. Read paths
// degrade to cached or empty results when Todoist is down; mutations always
// go straight through so a write never silently lands in a cache.
type Service struct {
	*Client
	guard  *resilience.Guard
	health *resilience.HealthMonitor
}

// NewService builds the resilient wrapper around a client.
func NewService(client *Client, guard *resilience.Guard, opts ...resilience.HealthOption) *Service {
	s := &Service{
		Client: client,
		guard:  guard,
	}
	s.health = resilience.NewHealthMonitor(ServiceName, func(ctx context.Context) error {
		return client.Ping(ctx)
	}, opts...)
	return s
}

// Guard exposes the underlying resilience guard for status reporting.
func (s *Service) Guard() *resilience.Guard {
	return s.guard
}

// Healthy reports debounced service reachability.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.health.Check(ctx)
}

// ProjectsWithFallback lists projects, degrading to cached data and then an
// empty list when the service is unavailable.
func (s *Service) ProjectsWithFallback(ctx context.Context) ([]Project, error) {
	empty := []Project{}
	return resilience.Execute(ctx, s.guard, "list_projects", resilience.Policy[[]Project]{
		CacheKey: resilience.Key("projects", "account="+s.account),
		Fallback: &empty,
	}, func(ctx context.Context) ([]Project, error) {
		return s.Client.Projects(ctx)
	})
}

// TasksWithFallback lists tasks, degrading to cached data and then an empty
// list when the service is unavailable.
func (s *Service) TasksWithFallback(ctx context.Context, q TaskQuery) ([]Task, error) {
	empty := []Task{}
	return resilience.Execute(ctx, s.guard, "list_tasks", resilience.Policy[[]Task]{
		CacheKey: resilience.Key("tasks",
			"account="+s.account,
			"project="+q.ProjectID,
			"label="+q.Label,
			"filter="+q.Filter),
		Fallback: &empty,
	}, func(ctx context.Context) ([]Task, error) {
		return s.Client.Tasks(ctx, q)
	})
}

// CompletedTasksWithFallback lists completed tasks. There is no static
// fallback here: a review of finished work must not silently show an empty
// week, so upstream failures surface once the stale cache is exhausted.
func (s *Service) CompletedTasksWithFallback(ctx context.Context, q CompletedQuery) (*CompletedPage, error) {
	return resilience.Execute(ctx, s.guard, "list_completed_tasks", resilience.Policy[*CompletedPage]{
		CacheKey: resilience.Key("completed",
			"account="+s.account,
			"project="+q.ProjectID,
			"since="+q.Since,
			"until="+q.Until),
	}, func(ctx context.Context) (*CompletedPage, error) {
		return s.Client.CompletedTasks(ctx, q)
	})
}

// LabelsWithFallback lists labels, degrading to cached data and then an
// empty list when the service is unavailable.
func (s *Service) LabelsWithFallback(ctx context.Context) ([]Label, error) {
	empty := []Label{}
	return resilience.Execute(ctx, s.guard, "list_labels", resilience.Policy[[]Label]{
		CacheKey: resilience.Key("labels", "account="+s.account),
		Fallback: &empty,
	}, func(ctx context.Context) ([]Label, error) {
		return s.Client.Labels(ctx)
	})
}
