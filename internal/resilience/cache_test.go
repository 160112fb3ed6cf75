package resilience

import (
	"testing"
	"time"
)

func TestCacheGetFresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Set("projects", []string{"inbox", "work"}, 5*time.Minute)

	got, ok := c.Get("projects")
	if !ok {
		t.Fatal("expected cache hit")
	}
	projects, ok := got.([]string)
	if !ok || len(projects) != 2 {
		t.Errorf("unexpected cached value: %v", got)
	}
}

func TestCacheGetExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Set("projects", "data", 5*time.Minute)
	now = now.Add(5*time.Minute + time.Second)

	if _, ok := c.Get("projects"); ok {
		t.Error("expected expired entry to miss")
	}
	// The entry survives the miss so the failure path can still read it.
	if c.Len() != 1 {
		t.Errorf("expected expired entry retained for stale reads, have %d entries", c.Len())
	}
	if _, ok := c.StaleGet("projects", time.Hour); !ok {
		t.Error("expected stale read to hit after a fresh miss")
	}
}

func TestCacheStaleGet(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Set("events", "stale-data", 5*time.Minute)
	now = now.Add(30 * time.Minute)

	if _, ok := c.Get("events"); ok {
		t.Error("expected fresh read to miss after TTL")
	}
	got, ok := c.StaleGet("events", time.Hour)
	if !ok {
		t.Fatal("expected stale read to hit inside offline TTL")
	}
	if got != "stale-data" {
		t.Errorf("unexpected stale value: %v", got)
	}

	now = now.Add(45 * time.Minute)
	if _, ok := c.StaleGet("events", time.Hour); ok {
		t.Error("expected stale read to miss beyond offline TTL")
	}
}

func TestCacheSetDefaultTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Set("k", "v", 0)

	now = now.Add(DefaultTTL - time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("expected hit just inside default TTL")
	}
	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss just beyond default TTL")
	}
}

func TestCacheOverwriteResetsAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Set("k", "old", time.Minute)
	now = now.Add(30 * time.Second)
	c.Set("k", "new", time.Minute)
	now = now.Add(45 * time.Second)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit, overwrite should reset entry age")
	}
	if got != "new" {
		t.Errorf("got %v, want new", got)
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithCapacity(2), WithClock(func() time.Time { return now }))

	c.Set("a", 1, time.Hour)
	now = now.Add(time.Second)
	c.Set("b", 2, time.Hour)
	now = now.Add(time.Second)
	c.Set("c", 3, time.Hour)

	if _, ok := c.Get("a"); ok {
		t.Error("expected oldest entry evicted at capacity")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected newer entry retained")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected newest entry retained")
	}
}

func TestCacheCapacityPrefersExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewCache(WithCapacity(2), WithClock(func() time.Time { return now }))

	c.Set("short", 1, time.Second)
	now = now.Add(time.Minute)
	c.Set("long", 2, time.Hour)
	now = now.Add(time.Second)
	c.Set("new", 3, time.Hour)

	// The expired entry frees the slot; the live one survives.
	if _, ok := c.Get("long"); !ok {
		t.Error("expected live entry retained when an expired one could be purged")
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("expected newest entry present")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, have %d entries", c.Len())
	}
}
