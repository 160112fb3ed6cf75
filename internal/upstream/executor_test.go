package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func testProvider(t *testing.T) *StaticTokenProvider {
	t.Helper()
	p := NewStaticTokenProvider()
	p.SetToken("tasks", "default", &oauth2.Token{AccessToken: "test-token"})
	return p
}

func testExecutor(t *testing.T, provider TokenProvider, sleeps *[]time.Duration) *Executor {
	t.Helper()
	return NewExecutor(provider,
		WithSleepFunc(func(d time.Duration) {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
		}),
	)
}

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header = %q, want bearer token", got)
		}
		w.Write([]byte(`{"id":"p1","name":"Inbox"}`))
	}))
	defer server.Close()

	exec := testExecutor(t, testProvider(t), nil)

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL + "/projects",
	}, &out)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if out.ID != "p1" || out.Name != "Inbox" {
		t.Errorf("decoded %+v, want id=p1 name=Inbox", out)
	}
}

func TestDo_QueryParameters(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	exec := testExecutor(t, testProvider(t), nil)

	var out []any
	query := url.Values{}
	query.Set("filter", "today")
	query.Set("lang", "en")
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL + "/tasks",
		Query:   query,
	}, &out)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if gotQuery.Get("filter") != "today" || gotQuery.Get("lang") != "en" {
		t.Errorf("query = %v, want filter=today lang=en", gotQuery)
	}
}

func TestDo_UnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	exec := testExecutor(t, testProvider(t), nil)

	var out map[string]any
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL,
	}, &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", apiErr.StatusCode)
	}
}

func TestDo_AuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(status)
		}))

		exec := testExecutor(t, testProvider(t), nil)
		err := exec.Do(context.Background(), Request{
			Service: "tasks",
			Account: "default",
			URL:     server.URL,
		}, nil)
		server.Close()

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("status %d: expected *AuthError, got %v", status, err)
		}
		if authErr.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", authErr.StatusCode, status)
		}
		if !strings.Contains(err.Error(), "re-authenticate") {
			t.Errorf("auth error should instruct re-authentication, got %q", err.Error())
		}
		if attempts != 1 {
			t.Errorf("auth failure was retried %d times, want 1 attempt", attempts)
		}
	}
}

func TestDo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	exec := testExecutor(t, testProvider(t), nil)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL + "/tasks/missing",
	}, nil)

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func TestDo_RateLimitExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	exec := testExecutor(t, testProvider(t), &sleeps)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL,
	}, nil)

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected *RateLimitError, got %v", err)
	}
	if attempts != DefaultMaxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts, DefaultMaxRetries+1)
	}
	// Exponential backoff: 2^0, 2^1, 2^2 seconds between the four attempts
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", sleeps, want)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestDo_ZeroRetriesStillAttemptsOnce(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	exec := NewExecutor(testProvider(t),
		WithMaxRetries(0),
		WithSleepFunc(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL,
	}, nil)

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected *RateLimitError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want exactly 1 with retries disabled", attempts)
	}
	if len(sleeps) != 0 {
		t.Errorf("sleeps = %v, want none with retries disabled", sleeps)
	}
}

func TestDo_RateLimitThenSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	exec := testExecutor(t, testProvider(t), &sleeps)

	var out map[string]any
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL,
	}, &out)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestDo_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database unavailable"}`))
	}))
	defer server.Close()

	exec := testExecutor(t, testProvider(t), nil)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     server.URL,
	}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "database unavailable") {
		t.Errorf("Message = %q, want parsed upstream message", apiErr.Message)
	}
}

func TestDo_ConnectionFailure(t *testing.T) {
	// Point at a server that is already closed to force connection errors.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	exec := testExecutor(t, testProvider(t), nil)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     endpoint,
	}, nil)

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
}

func TestDo_NoToken(t *testing.T) {
	exec := testExecutor(t, NewStaticTokenProvider(), nil)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "nobody",
		URL:     "http://localhost/never-called",
	}, nil)

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError for missing token, got %v", err)
	}
}

func TestDo_ExpiredToken(t *testing.T) {
	provider := NewStaticTokenProvider()
	provider.SetToken("tasks", "default", &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	})

	exec := testExecutor(t, provider, nil)
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		URL:     "http://localhost/never-called",
	}, nil)

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError for expired token, got %v", err)
	}
	if !strings.Contains(authErr.Reason, "expired") {
		t.Errorf("Reason = %q, want mention of expiry", authErr.Reason)
	}
}

func TestDo_PostBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"id":"t1"}`))
	}))
	defer server.Close()

	exec := testExecutor(t, testProvider(t), nil)

	var out map[string]any
	err := exec.Do(context.Background(), Request{
		Service: "tasks",
		Account: "default",
		Method:  http.MethodPost,
		URL:     server.URL + "/tasks",
		Body:    map[string]string{"content": "Buy groceries"},
	}, &out)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if !strings.Contains(gotBody, "Buy groceries") {
		t.Errorf("request body = %q, want task content", gotBody)
	}
}

func TestIsServiceFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "connection error", err: &ConnectionError{Service: "tasks", Err: errors.New("refused")}, want: true},
		{name: "rate limit error", err: &RateLimitError{Service: "tasks", Attempts: 3}, want: true},
		{name: "api error", err: &APIError{Service: "tasks", StatusCode: 500}, want: true},
		{name: "auth error", err: &AuthError{Service: "tasks"}, want: false},
		{name: "not found", err: &NotFoundError{Service: "tasks"}, want: false},
		{name: "config error", err: &ConfigError{Service: "tasks"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsServiceFault(tt.err); got != tt.want {
				t.Errorf("IsServiceFault(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
