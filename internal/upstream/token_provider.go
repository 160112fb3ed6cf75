package upstream

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for upstream APIs.
// This abstraction allows different token sources (file-based, OAuth store, etc.)
// while keeping token exchange and persistence outside this package.
type TokenProvider interface {
	// GetValidToken retrieves a valid OAuth token for the (service, account)
	// pair, or nil if no token is available.
	GetValidToken(ctx context.Context, service, account string) (*oauth2.Token, error)

	// IsTokenValid reports whether the token is usable for API calls.
	IsTokenValid(token *oauth2.Token) bool
}

// StaticTokenProvider serves tokens from an in-memory map keyed by
// service/account. Used by the CLI (tokens loaded at startup) and by tests.
type StaticTokenProvider struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewStaticTokenProvider creates an empty static provider.
func NewStaticTokenProvider() *StaticTokenProvider {
	return &StaticTokenProvider{tokens: make(map[string]*oauth2.Token)}
}

// SetToken registers a token for the (service, account) pair.
func (p *StaticTokenProvider) SetToken(service, account string, token *oauth2.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[service+"/"+account] = token
}

// GetValidToken returns the registered token, or nil if absent.
func (p *StaticTokenProvider) GetValidToken(ctx context.Context, service, account string) (*oauth2.Token, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tokens[service+"/"+account], nil
}

// IsTokenValid reports whether the token carries an access token that has not
// expired. A zero expiry means the token does not expire.
func (p *StaticTokenProvider) IsTokenValid(token *oauth2.Token) bool {
	if token == nil || token.AccessToken == "" {
		return false
	}
	if token.Expiry.IsZero() {
		return true
	}
	return token.Expiry.After(time.Now())
}
