package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/instrumentation"
	"github.com/weekrev/weekrev/internal/logging"
	"github.com/weekrev/weekrev/internal/resilience"
	"github.com/weekrev/weekrev/internal/tasks"
	"github.com/weekrev/weekrev/internal/upstream"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	tokens  upstream.TokenProvider
	exec    *upstream.Executor
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	taskGuard    *resilience.Guard
	taskServices map[string]*tasks.Service // account name -> resilient wrapper

	calendarGuard   *resilience.Guard
	accountStore    calendar.AccountStore
	calendarService *calendar.Service

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAccountStore sets the calendar account store.
func WithAccountStore(store calendar.AccountStore) Option {
	return func(sc *ServerContext) { sc.accountStore = store }
}

// NewServerContext creates a new server context. Each upstream service gets
// its own circuit breaker and response cache; accounts within a service
// share them, with cache keys carrying the account name.
func NewServerContext(ctx context.Context, tokens upstream.TokenProvider, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		tokens:       tokens,
		metrics:      &instrumentation.Metrics{},
		logger:       slog.Default(),
		taskServices: make(map[string]*tasks.Service),
		accountStore: calendar.NewMemoryAccountStore(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	sc.exec = upstream.NewExecutor(tokens, upstream.WithLogger(sc.logger))
	sc.taskGuard = sc.newGuard(tasks.ServiceName)
	sc.calendarGuard = sc.newGuard(calendar.ServiceName)
	return sc
}

// newGuard builds a per-service guard whose breaker transitions are logged
// and counted.
func (sc *ServerContext) newGuard(service string) *resilience.Guard {
	breaker := resilience.NewCircuitBreaker(
		resilience.WithTransitionHook(func(from, to resilience.BreakerState) {
			sc.logger.Warn("circuit breaker state change",
				logging.Service(service),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			sc.metrics.RecordBreakerTransition(sc.ctx, service, from.String(), to.String())
		}),
	)
	return resilience.NewGuard(service,
		resilience.WithBreaker(breaker),
		resilience.WithGuardLogger(sc.logger),
		resilience.WithCacheObserver(func(result string) {
			sc.metrics.RecordCacheLookup(sc.ctx, service, result)
		}),
		resilience.WithFetchObserver(func(op string, err error, elapsed time.Duration) {
			status := instrumentation.StatusSuccess
			if err != nil {
				status = instrumentation.StatusError
			}
			sc.metrics.RecordUpstreamOperation(sc.ctx, service, op, status, elapsed)
		}))
}

// healthHook records health flips for one service.
func (sc *ServerContext) healthHook(service string) resilience.HealthOption {
	return resilience.WithHealthChangeHook(func(healthy bool) {
		sc.metrics.RecordHealthChange(sc.ctx, service, healthy)
	})
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Metrics returns the metrics recorder.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// AccountStore returns the calendar account store.
func (sc *ServerContext) AccountStore() calendar.AccountStore {
	return sc.accountStore
}

// TasksServiceForAccount returns the resilient task service for an account,
// creating and caching it on first use. All accounts share the service's
// breaker and cache.
func (sc *ServerContext) TasksServiceForAccount(account string) *tasks.Service {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if svc, ok := sc.taskServices[account]; ok {
		return svc
	}

	client := tasks.NewClient(sc.exec, account)
	svc := tasks.NewService(client, sc.taskGuard, sc.healthHook(tasks.ServiceName))
	sc.taskServices[account] = svc
	return svc
}

// TasksService returns the task service for the default account.
func (sc *ServerContext) TasksService() *tasks.Service {
	return sc.TasksServiceForAccount("default")
}

// CalendarService returns the resilient multi-account calendar service,
// creating it on first use.
func (sc *ServerContext) CalendarService() *calendar.Service {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.calendarService != nil {
		return sc.calendarService
	}

	fetcher := calendar.NewFetcher(sc.accountStore, func(account calendar.Account) *calendar.Client {
		return calendar.NewClient(sc.exec, account.Email)
	}, calendar.WithFetcherLogger(sc.logger))

	probe := func(ctx context.Context) error {
		accounts, err := sc.accountStore.Accounts(ctx)
		if err != nil {
			return err
		}
		for _, account := range accounts {
			if account.Valid {
				return calendar.NewClient(sc.exec, account.Email).Ping(ctx)
			}
		}
		return &upstream.ConfigError{Service: calendar.ServiceName, Reason: "no valid accounts connected"}
	}

	sc.calendarService = calendar.NewService(fetcher, sc.calendarGuard, probe, sc.healthHook(calendar.ServiceName))
	return sc.calendarService
}

// ServiceStatus is one upstream's resilience snapshot.
type ServiceStatus struct {
	Service       string `json:"service"`
	BreakerState  string `json:"breaker_state"`
	CachedEntries int    `json:"cached_entries"`
}

// Status reports the breaker state and cache occupancy of every upstream.
func (sc *ServerContext) Status() []ServiceStatus {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	status := []ServiceStatus{}
	for _, guard := range []*resilience.Guard{sc.taskGuard, sc.calendarGuard} {
		status = append(status, ServiceStatus{
			Service:       guard.Service,
			BreakerState:  guard.Breaker.State().String(),
			CachedEntries: guard.Cache.Len(),
		})
	}
	return status
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
