// Package tasks provides a Todoist REST client with resilient access
// wrappers.
//
// The raw Client speaks the Todoist v2 REST API through the shared upstream
// executor, which handles authentication, retries, and error classification.
// The Service type layers the cache and circuit breaker on top of the read
// paths so that a Todoist outage degrades to cached or empty results instead
// of failing the caller.
package tasks
