package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Enabled() {
		t.Error("provider should report disabled")
	}
	if p.Metrics() == nil {
		t.Fatal("disabled provider must still return a usable recorder")
	}

	// All recorder methods must be safe no-ops.
	m := p.Metrics()
	ctx := context.Background()
	m.RecordUpstreamOperation(ctx, "todoist", "list_tasks", StatusSuccess, time.Second)
	m.RecordCacheLookup(ctx, "todoist", CacheHit)
	m.RecordBreakerTransition(ctx, "todoist", "closed", "open")
	m.RecordHealthChange(ctx, "todoist", false)
	m.RecordToolInvocation(ctx, "tasks_list_tasks", StatusError, time.Second)
	m.RecordToolInvocationWithAccount(ctx, "tasks_list_tasks", StatusSuccess, "work", time.Second)

	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("shutdown of disabled provider: %v", err)
	}
}

func TestNewProviderEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceVersion = "test"

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Shutdown(context.Background())

	if !p.Enabled() {
		t.Error("provider should report enabled")
	}

	// Recording through a real meter must not panic.
	ctx := context.Background()
	p.Metrics().RecordUpstreamOperation(ctx, "calendar", "fetch_events", StatusSuccess, 250*time.Millisecond)
	p.Metrics().RecordBreakerTransition(ctx, "calendar", "closed", "open")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "weekrev" {
		t.Errorf("ServiceName = %q, want weekrev", cfg.ServiceName)
	}
	if !cfg.Enabled {
		t.Error("instrumentation should default to enabled")
	}
	if cfg.PrometheusEndpoint != "/metrics" {
		t.Errorf("PrometheusEndpoint = %q, want /metrics", cfg.PrometheusEndpoint)
	}
	if cfg.DetailedLabels {
		t.Error("detailed labels should default to off")
	}
}
