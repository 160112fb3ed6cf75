package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"

	"github.com/weekrev/weekrev/internal/resilience"
	"github.com/weekrev/weekrev/internal/upstream"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := upstream.NewStaticTokenProvider()
	tokens.SetToken(ServiceName, "work", &oauth2.Token{AccessToken: "test-token"})
	exec := upstream.NewExecutor(tokens, upstream.WithMaxRetries(0))

	client := NewClient(exec, "work", WithBaseURL(srv.URL))
	return NewService(client, resilience.NewGuard(ServiceName)), srv
}

func TestProjectsWithFallbackCaches(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]Project{{ID: "1", Name: "Work"}})
	}))

	for i := 0; i < 3; i++ {
		projects, err := svc.ProjectsWithFallback(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(projects) != 1 {
			t.Fatalf("got %d projects, want 1", len(projects))
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream called %d times, want 1 (cache must absorb repeats)", n)
	}
}

func TestProjectsWithFallbackEmptyOnOutage(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
	}))

	projects, err := svc.ProjectsWithFallback(context.Background())
	if err != nil {
		t.Fatalf("expected empty fallback, got error: %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Errorf("got %v, want empty list", projects)
	}

	failures, _ := svc.Guard().Breaker.Counts()
	if failures != 1 {
		t.Errorf("failure count = %d, want 1", failures)
	}
}

func TestCompletedTasksWithFallbackSurfacesOutage(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
	}))

	_, err := svc.CompletedTasksWithFallback(context.Background(), CompletedQuery{})
	if err == nil {
		t.Fatal("completed tasks must not silently fall back to empty")
	}
	var apiErr *upstream.APIError
	if !upstream.IsServiceFault(err) {
		t.Errorf("got %v (%T), want a service fault", err, apiErr)
	}
}

func TestTasksWithFallbackDistinctQueriesCacheSeparately(t *testing.T) {
	var calls int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]Task{{ID: "t1", Content: "x", ProjectID: r.URL.Query().Get("project_id")}})
	}))

	if _, err := svc.TasksWithFallback(context.Background(), TaskQuery{ProjectID: "1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TasksWithFallback(context.Background(), TaskQuery{ProjectID: "2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TasksWithFallback(context.Background(), TaskQuery{ProjectID: "1"}); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("upstream called %d times, want 2 (one per distinct query)", n)
	}
}

func TestServiceHealthyUsesUserEndpoint(t *testing.T) {
	var path string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode(User{ID: "u1", Email: "a@example.com"})
	}))

	if !svc.Healthy(context.Background()) {
		t.Error("expected healthy with a responsive upstream")
	}
	if path != "/user" {
		t.Errorf("probe hit %q, want /user", path)
	}
}

func TestServiceHealthyAuthFailureStillReachable(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
	}))

	if !svc.Healthy(context.Background()) {
		t.Error("an auth rejection still proves the service is up")
	}
}
