// Package upstream implements the resilient HTTP access layer for the
// third-party task and calendar services.
//
// The package has three parts:
//
//   - A typed error taxonomy that classifies upstream failures into
//     authentication, configuration, connectivity, rate-limit, not-found
//     and generic API errors. Callers branch on these with errors.As.
//   - A TokenProvider abstraction supplying valid bearer tokens per
//     (service, account). Token acquisition and persistence are owned by
//     collaborating infrastructure; this package only consumes tokens.
//   - An Executor that issues one authenticated request and applies
//     classification-driven retry: exponential backoff on rate limiting,
//     immediate retry on connectivity failures, and no retry at all on
//     fatal outcomes such as auth failures or malformed responses.
//
// The upstream services do not support refresh tokens, so authentication
// errors always instruct a full re-authentication rather than a refresh.
package upstream
