package resilience

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a cache entry is considered fresh.
	DefaultTTL = 5 * time.Minute

	// DefaultOfflineTTL is how long an expired entry remains serviceable for
	// stale reads when the upstream is failing.
	DefaultOfflineTTL = time.Hour

	// DefaultCacheCapacity bounds the number of entries held at once.
	DefaultCacheCapacity = 256
)

type cacheEntry struct {
	data      any
	createdAt time.Time
	ttl       time.Duration
}

// Cache is a bounded key-value store with per-entry TTL. Entries past their
// TTL are invisible to Get but remain readable through StaleGet until the
// offline TTL elapses, which lets the fallback path serve known-stale data
// while the upstream is down.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	capacity int

	// now is replaced in tests to control time.
	now func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCapacity sets the maximum number of entries.
func WithCapacity(n int) CacheOption {
	return func(c *Cache) { c.capacity = n }
}

// WithClock overrides the time source; used by tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache with the default capacity.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:  make(map[string]cacheEntry),
		capacity: DefaultCacheCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key if it exists and is still fresh.
// Expired entries are left in place so the fallback path can still reach
// them through StaleGet; they are purged by StaleGet past the offline TTL
// or when capacity pressure demands it.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) > entry.ttl {
		return nil, false
	}
	return entry.data, true
}

// StaleGet returns the cached value even past its normal TTL, provided the
// entry is no older than offlineTTL. Entries beyond offlineTTL are purged.
// Only the fallback orchestrator's failure path should use this.
func (c *Cache) StaleGet(key string, offlineTTL time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) > offlineTTL {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

// Set stores data under key with the given TTL. A non-positive ttl falls
// back to DefaultTTL. When at capacity, expired entries are purged first;
// if the cache is still full, the single oldest entry is evicted.
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.purgeExpiredLocked()
		if len(c.entries) >= c.capacity {
			c.evictOldestLocked()
		}
	}

	c.entries[key] = cacheEntry{
		data:      data,
		createdAt: c.now(),
		ttl:       ttl,
	}
}

// Clear empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) purgeExpiredLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) > entry.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
