package calendar

import (
	"context"
	"sync"
)

// MemoryAccountStore is an AccountStore backed by process memory. Accounts
// are registered at startup from configuration; calendar lists accumulate as
// discovery succeeds.
type MemoryAccountStore struct {
	mu        sync.RWMutex
	accounts  []Account
	calendars map[string][]CalendarInfo
}

// NewMemoryAccountStore creates a store with the given accounts.
func NewMemoryAccountStore(accounts ...Account) *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts:  accounts,
		calendars: make(map[string][]CalendarInfo),
	}
}

// AddAccount registers another account.
func (s *MemoryAccountStore) AddAccount(account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, account)
}

// Accounts returns all registered accounts.
func (s *MemoryAccountStore) Accounts(ctx context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

// CalendarsFor returns the last stored calendar list for an account.
func (s *MemoryAccountStore) CalendarsFor(ctx context.Context, accountID string) ([]CalendarInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.calendars[accountID]
	out := make([]CalendarInfo, len(stored))
	copy(out, stored)
	return out, nil
}

// StoreCalendars replaces the stored calendar list for an account.
func (s *MemoryAccountStore) StoreCalendars(ctx context.Context, accountID string, calendars []CalendarInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]CalendarInfo, len(calendars))
	copy(stored, calendars)
	s.calendars[accountID] = stored
	return nil
}
