// Package resilience provides the fault-tolerance building blocks that sit
// between tool handlers and flaky upstream services: a TTL response cache
// with stale-but-serviceable reads, a three-state circuit breaker, a
// debounced health monitor, and a fallback orchestrator composing them
// around a fetch closure.
//
// All state is in-memory and process-lifetime only. Components are plain
// structs constructed once at startup and injected by reference into call
// sites, so tests can run against isolated instances.
package resilience
