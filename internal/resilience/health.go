package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/weekrev/weekrev/internal/logging"
	"github.com/weekrev/weekrev/internal/upstream"
)

// DefaultCheckInterval is the minimum time between health probes; calls
// arriving inside the window reuse the last known status.
const DefaultCheckInterval = 60 * time.Second

// unhealthyAfter is the consecutive-failure count that flips a service to
// unhealthy. A single success flips it back.
const unhealthyAfter = 3

// ProbeFunc performs one lightweight reachability check against a service.
// A nil error means the service answered. An auth error also counts as
// reachable since the service itself responded.
type ProbeFunc func(ctx context.Context) error

// HealthMonitor tracks reachability of one upstream service with debounced
// probing and failure hysteresis.
type HealthMonitor struct {
	service  string
	probe    ProbeFunc
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	onChange func(healthy bool)

	mu           sync.Mutex
	healthy      bool
	failureCount int
	lastCheck    time.Time
	checked      bool
	probing      bool
}

// HealthOption configures a HealthMonitor.
type HealthOption func(*HealthMonitor)

// WithCheckInterval overrides the probe debounce window.
func WithCheckInterval(d time.Duration) HealthOption {
	return func(m *HealthMonitor) { m.interval = d }
}

// WithHealthLogger sets the structured logger.
func WithHealthLogger(l *slog.Logger) HealthOption {
	return func(m *HealthMonitor) { m.logger = l }
}

// WithHealthClock injects a clock for tests.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(m *HealthMonitor) { m.now = now }
}

// WithHealthChangeHook registers a hook invoked whenever the monitor flips
// between healthy and unhealthy.
func WithHealthChangeHook(fn func(healthy bool)) HealthOption {
	return func(m *HealthMonitor) { m.onChange = fn }
}

// NewHealthMonitor creates a monitor for one service. Services start out
// healthy until a probe proves otherwise.
func NewHealthMonitor(service string, probe ProbeFunc, opts ...HealthOption) *HealthMonitor {
	m := &HealthMonitor{
		service:  service,
		probe:    probe,
		interval: DefaultCheckInterval,
		logger:   slog.Default(),
		now:      time.Now,
		healthy:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check returns the current health status, probing the service if the
// debounce window has elapsed. Concurrent callers never trigger overlapping
// probes; late arrivals reuse the status from the in-flight check's
// predecessor.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	now := m.now()
	if m.probing || (m.checked && now.Sub(m.lastCheck) < m.interval) {
		healthy := m.healthy
		m.mu.Unlock()
		return healthy
	}
	m.probing = true
	m.lastCheck = now
	m.checked = true
	m.mu.Unlock()

	err := m.probe(ctx)
	reachable := err == nil || upstream.IsAuthError(err)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.probing = false
	if reachable {
		m.failureCount = 0
		if !m.healthy {
			m.logger.Info("service recovered",
				logging.Service(m.service),
				logging.State("healthy"))
			if m.onChange != nil {
				m.onChange(true)
			}
		}
		m.healthy = true
	} else {
		m.failureCount++
		if m.failureCount >= unhealthyAfter && m.healthy {
			m.healthy = false
			m.logger.Warn("service marked unhealthy",
				logging.Service(m.service),
				logging.State("unhealthy"),
				slog.Int("consecutive_failures", m.failureCount),
				logging.Err(err))
			if m.onChange != nil {
				m.onChange(false)
			}
		}
	}
	return m.healthy
}

// Healthy reports the last known status without probing.
func (m *HealthMonitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// LastCheck returns when the service was last probed and whether any probe
// has run yet.
func (m *HealthMonitor) LastCheck() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCheck, m.checked
}
