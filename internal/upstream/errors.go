package upstream

import (
	"errors"
	"fmt"
)

// AuthError indicates the upstream rejected our credentials (401/403) or no
// usable token was available. The upstream services do not support refresh
// tokens, so recovery always requires a full re-authentication. Fatal, never
// retried.
type AuthError struct {
	Service    string
	Account    string
	StatusCode int
	Reason     string
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("%s authentication failed for account %q", e.Service, e.Account)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg + "; please re-authenticate with " + e.Service
}

// ConfigError indicates missing or invalid client configuration, such as
// absent credentials. Fatal, never retried.
type ConfigError struct {
	Service string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration error: %s", e.Service, e.Reason)
}

// ConnectionError indicates a network-level failure (timeout, refused
// connection, DNS). Retried inside the Executor; surfaced only once the
// retry budget is exhausted.
type ConnectionError struct {
	Service string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to reach %s service: %v", e.Service, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates the upstream returned 429 on every attempt within
// the retry budget.
type RateLimitError struct {
	Service  string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded after %d attempts; try again later", e.Service, e.Attempts)
}

// NotFoundError indicates a 404 for the requested resource. Fatal, never
// retried.
type NotFoundError struct {
	Service  string
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s resource not found: %s", e.Service, e.Resource)
}

// APIError is the generic fatal error for any other upstream failure,
// including non-retryable HTTP statuses and unparseable 200 responses.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Service, e.Message)
}

// IsServiceFault reports whether err indicates the upstream service itself is
// failing (connectivity loss, rate limiting, server-side errors). These are
// the outcomes the fallback layer counts against the circuit breaker and
// serves stale cache for. Authentication, configuration and not-found errors
// are caller problems, not service faults.
func IsServiceFault(err error) bool {
	var connErr *ConnectionError
	var rateErr *RateLimitError
	var apiErr *APIError
	return errors.As(err, &connErr) || errors.As(err, &rateErr) || errors.As(err, &apiErr)
}

// IsAuthError reports whether err is an authentication failure requiring
// re-authentication.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
