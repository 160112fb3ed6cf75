package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/weekrev/weekrev/internal/logging"
	"github.com/weekrev/weekrev/internal/upstream"
)

// ServiceUnavailableError is raised when the circuit is open and neither a
// cached value nor a static fallback can satisfy the call.
type ServiceUnavailableError struct {
	Service   string
	Operation string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s service unavailable: circuit is open and no cached data exists for %s", e.Service, e.Operation)
}

// Key builds a deterministic cache key from an operation name and structured
// parameters. Parameters are canonicalized by sorting, so callers may pass
// "k=v" pairs in any order.
func Key(operation string, params ...string) string {
	if len(params) == 0 {
		return operation
	}
	sorted := make([]string, len(params))
	copy(sorted, params)
	sort.Strings(sorted)
	return operation + "?" + strings.Join(sorted, "&")
}

// Guard bundles the long-lived resilience services protecting one upstream.
// One Guard is constructed per service at process start and injected into
// every call site.
type Guard struct {
	Service string
	Cache   *Cache
	Breaker *CircuitBreaker
	Logger  *slog.Logger

	// onCacheLookup observes cache lookup outcomes ("hit", "miss",
	// "stale") for operations that carry a cache key.
	onCacheLookup func(result string)

	// onFetch observes every upstream fetch with its outcome and duration.
	onFetch func(op string, err error, elapsed time.Duration)
}

// NewGuard creates a Guard with a fresh cache and breaker.
func NewGuard(service string, opts ...GuardOption) *Guard {
	g := &Guard{
		Service: service,
		Cache:   NewCache(),
		Breaker: NewCircuitBreaker(),
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithCache supplies a pre-built cache.
func WithCache(c *Cache) GuardOption {
	return func(g *Guard) { g.Cache = c }
}

// WithBreaker supplies a pre-built circuit breaker.
func WithBreaker(cb *CircuitBreaker) GuardOption {
	return func(g *Guard) { g.Breaker = cb }
}

// WithGuardLogger sets the structured logger.
func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) { g.Logger = l }
}

// WithCacheObserver registers a hook for cache lookup outcomes.
func WithCacheObserver(fn func(result string)) GuardOption {
	return func(g *Guard) { g.onCacheLookup = fn }
}

// WithFetchObserver registers a hook for upstream fetch outcomes.
func WithFetchObserver(fn func(op string, err error, elapsed time.Duration)) GuardOption {
	return func(g *Guard) { g.onFetch = fn }
}

// Policy controls one resilient operation run through Execute.
type Policy[T any] struct {
	// CacheKey enables caching when non-empty. Build it with Key.
	CacheKey string

	// TTL is the freshness window for cached results; DefaultTTL if zero.
	TTL time.Duration

	// OfflineTTL is the stale-read window used when the fetch fails;
	// DefaultOfflineTTL if zero.
	OfflineTTL time.Duration

	// Fallback, when non-nil, is returned instead of any error. This is the
	// only silent-swallow path; configuring it must be a deliberate choice
	// at the call site.
	Fallback *T

	// SkipBreaker disables circuit-breaker gating for this operation.
	SkipBreaker bool
}

// Execute runs fetch under the guard's cache and circuit breaker.
//
// Order of operations: fresh cache hit wins (the cache doubles as request
// coalescing, not only failure fallback); an open circuit short-circuits to
// cache, then static fallback, then ServiceUnavailableError; a successful
// fetch records success and refreshes the cache; a service-fault failure
// records the failure and degrades to a stale cache read, then the static
// fallback, then the original error. Fatal caller errors (auth, config,
// not-found) bypass the breaker and stale path entirely.
func Execute[T any](ctx context.Context, g *Guard, op string, p Policy[T], fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	offlineTTL := p.OfflineTTL
	if offlineTTL <= 0 {
		offlineTTL = DefaultOfflineTTL
	}

	logger := logging.WithOperation(logging.WithService(g.Logger, g.Service), op)

	if !p.SkipBreaker && !g.Breaker.CanExecute() {
		if value, ok := cachedValue[T](g, p.CacheKey); ok {
			g.observeCache("hit")
			logger.Info("circuit open, serving cached data", logging.CacheKey(p.CacheKey))
			return value, nil
		}
		if p.Fallback != nil {
			logger.Warn("circuit open, serving static fallback")
			return *p.Fallback, nil
		}
		return zero, &ServiceUnavailableError{Service: g.Service, Operation: op}
	}

	if value, ok := cachedValue[T](g, p.CacheKey); ok {
		g.observeCache("hit")
		return value, nil
	}
	if p.CacheKey != "" {
		g.observeCache("miss")
	}

	fetchStart := time.Now()
	result, err := fetch(ctx)
	if g.onFetch != nil {
		g.onFetch(op, err, time.Since(fetchStart))
	}
	if err == nil {
		g.Breaker.RecordSuccess()
		if p.CacheKey != "" {
			g.Cache.Set(p.CacheKey, result, ttl)
		}
		return result, nil
	}

	if upstream.IsServiceFault(err) {
		g.Breaker.RecordFailure()
		if p.CacheKey != "" {
			if stale, ok := g.Cache.StaleGet(p.CacheKey, offlineTTL); ok {
				if value, ok := stale.(T); ok {
					g.observeCache("stale")
					logger.Warn("fetch failed, serving stale cached data",
						logging.CacheKey(p.CacheKey),
						logging.Err(err))
					return value, nil
				}
			}
		}
	}

	if p.Fallback != nil {
		logger.Warn("fetch failed, serving static fallback", logging.Err(err))
		return *p.Fallback, nil
	}
	return zero, err
}

func (g *Guard) observeCache(result string) {
	if g.onCacheLookup != nil {
		g.onCacheLookup(result)
	}
}

func cachedValue[T any](g *Guard, key string) (T, bool) {
	var zero T
	if key == "" {
		return zero, false
	}
	cached, ok := g.Cache.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := cached.(T)
	if !ok {
		return zero, false
	}
	return value, true
}
