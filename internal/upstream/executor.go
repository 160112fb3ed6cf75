package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/weekrev/weekrev/internal/logging"
)

const (
	// DefaultTimeout bounds each individual HTTP attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries bounds the number of retries after the first
	// attempt for retryable outcomes.
	DefaultMaxRetries = 3

	// maxErrorBody limits how much of an error response body is carried in
	// error messages.
	maxErrorBody = 200
)

// Request describes one authenticated call against an upstream REST API.
type Request struct {
	Service string // logical service name ("tasks", "calendar")
	Account string // account whose token authenticates the call
	Method  string // HTTP method (GET, POST, DELETE); defaults to GET
	URL     string // absolute endpoint URL
	Query   url.Values
	Body    any // JSON-encoded request body, if non-nil
}

// Executor issues authenticated requests with classification-driven retry.
// Transient outcomes (429, timeouts, connection failures) are retried up to
// the budget; everything else fails immediately with a typed error.
type Executor struct {
	client     *http.Client
	tokens     TokenProvider
	maxRetries int
	logger     *slog.Logger

	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = c }
}

// WithMaxRetries sets the retry budget for transient outcomes. Zero means
// a single attempt with no retries.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *Executor) { e.maxRetries = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithSleepFunc overrides the backoff sleep; used by tests.
func WithSleepFunc(fn func(time.Duration)) ExecutorOption {
	return func(e *Executor) { e.sleep = fn }
}

// NewExecutor creates an Executor backed by the given token provider.
func NewExecutor(tokens TokenProvider, opts ...ExecutorOption) *Executor {
	e := &Executor{
		client:     &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do performs the request and decodes the JSON response body into out.
// A nil out skips decoding, for endpoints that return empty bodies.
//
// Outcome classification:
//
//	200 + parseable body      -> decoded result
//	200 + unparseable body    -> *APIError, no retry
//	401/403                   -> *AuthError, no retry
//	404                       -> *NotFoundError, no retry
//	429                       -> retry with 2^attempt seconds backoff
//	other 4xx/5xx             -> *APIError with status + parsed message
//	timeout/connection error  -> immediate retry
func (e *Executor) Do(ctx context.Context, req Request, out any) error {
	token, err := e.tokens.GetValidToken(ctx, req.Service, req.Account)
	if err != nil {
		return fmt.Errorf("failed to get %s token for account %s: %w", req.Service, req.Account, err)
	}
	if token == nil {
		return &AuthError{
			Service: req.Service,
			Account: req.Account,
			Reason:  "no token found; complete authentication first",
		}
	}
	if !e.tokens.IsTokenValid(token) {
		return &AuthError{
			Service: req.Service,
			Account: req.Account,
			Reason:  "token has expired",
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint := req.URL
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	logger := logging.WithService(e.logger, req.Service)

	var lastConnErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		body, err := e.attempt(ctx, method, endpoint, token.AccessToken, req)
		if err != nil {
			switch classified := err.(type) {
			case *retryAfterBackoff:
				if attempt < e.maxRetries {
					wait := time.Duration(1<<uint(attempt)) * time.Second
					logger.Warn("rate limited by upstream, backing off",
						logging.Attempt(attempt+1),
						slog.Duration(logging.KeyDuration, wait))
					e.sleep(wait)
					continue
				}
				return &RateLimitError{Service: req.Service, Attempts: e.maxRetries + 1}
			case *retryImmediately:
				lastConnErr = classified.err
				logger.Warn("connection failure, retrying",
					logging.Attempt(attempt+1),
					logging.Err(classified.err))
				continue
			default:
				return err
			}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			logger.Error("invalid JSON response from upstream", logging.Err(err))
			return &APIError{
				Service:    req.Service,
				StatusCode: http.StatusOK,
				Message:    "invalid JSON response",
			}
		}
		return nil
	}

	return &ConnectionError{Service: req.Service, Err: lastConnErr}
}

// retryAfterBackoff and retryImmediately are internal classification markers
// consumed by the retry loop; they never escape Do.
type retryAfterBackoff struct{}

func (*retryAfterBackoff) Error() string { return "rate limited" }

type retryImmediately struct{ err error }

func (r *retryImmediately) Error() string { return r.err.Error() }

// attempt performs a single HTTP exchange and classifies its outcome.
func (e *Executor) attempt(ctx context.Context, method, endpoint, accessToken string, req Request) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.requestTimeout())
	defer cancel()

	var reqBody io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &APIError{Service: req.Service, Message: fmt.Sprintf("failed to encode request body: %v", err)}
		}
		reqBody = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reqBody)
	if err != nil {
		return nil, &APIError{Service: req.Service, Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		// Transport-level failures (timeouts, refused connections, DNS) are
		// all retryable; classification of the final error happens in Do.
		return nil, &retryImmediately{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryImmediately{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{
			Service:    req.Service,
			Account:    req.Account,
			StatusCode: resp.StatusCode,
			Reason:     errorMessage(respBody, resp.StatusCode),
		}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Service: req.Service, Resource: req.URL}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &retryAfterBackoff{}
	default:
		return nil, &APIError{
			Service:    req.Service,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody, resp.StatusCode),
		}
	}
}

func (e *Executor) requestTimeout() time.Duration {
	if e.client.Timeout > 0 {
		return e.client.Timeout
	}
	return DefaultTimeout
}

// errorMessage extracts a human-readable message from an error response body.
// Upstreams return {"error": "..."} on failure; anything else falls back to a
// truncated body snippet.
func errorMessage(body []byte, statusCode int) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	if text == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, text)
}
