package calendar

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weekrev/weekrev/internal/logging"
	"github.com/weekrev/weekrev/internal/upstream"
)

// maxConcurrentFetches bounds the calendar fan-out so a user with many
// accounts and calendars cannot stampede the upstream.
const maxConcurrentFetches = 5

// defaultWindowDays is the fetch window on each side of now when the caller
// does not give one.
const defaultWindowDays = 30

// AccountStore supplies the connected accounts and remembers each account's
// calendar list so a discovery outage can fall back to the last known set.
type AccountStore interface {
	// Accounts returns all connected calendar accounts.
	Accounts(ctx context.Context) ([]Account, error)

	// CalendarsFor returns the stored calendar list for an account, or an
	// empty slice when none has been stored.
	CalendarsFor(ctx context.Context, accountID string) ([]CalendarInfo, error)

	// StoreCalendars replaces the stored calendar list for an account.
	StoreCalendars(ctx context.Context, accountID string, calendars []CalendarInfo) error
}

// ClientFactory builds a per-account client. Injected so tests and the
// server wire accounts to tokens differently.
type ClientFactory func(account Account) *Client

// FetchOptions narrows a multi-account fetch. Zero Start and End default to
// a window of defaultWindowDays around now.
type FetchOptions struct {
	Start            time.Time
	End              time.Time
	MaxPerCalendar   int
	FilterCalendars  []string // when non-empty, only these calendar IDs
	ExcludeCalendars []string
}

// FetchFailure records one calendar that could not be fetched. Failures are
// isolated: the rest of the fan-out still contributes events.
type FetchFailure struct {
	AccountEmail string
	CalendarID   string
	Err          error
}

// FetchResult is the merged outcome of a multi-account fetch.
type FetchResult struct {
	Events   []Event
	Failures []FetchFailure
}

// Fetcher fans out event fetches across every account and calendar with
// bounded concurrency.
type Fetcher struct {
	store   AccountStore
	clients ClientFactory
	logger  *slog.Logger
	now     func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets the structured logger.
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// WithFetcherClock injects a clock for tests.
func WithFetcherClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a multi-account fetcher.
func NewFetcher(store AccountStore, clients ClientFactory, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		store:   store,
		clients: clients,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll fetches events from every calendar of every valid account and
// merges them sorted ascending by start time. A calendar that fails is
// reported in Failures without affecting the others. An error is returned
// only when the account listing fails or every attempted fetch failed.
func (f *Fetcher) FetchAll(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	now := f.now()
	if opts.Start.IsZero() {
		opts.Start = now.AddDate(0, 0, -defaultWindowDays)
	}
	if opts.End.IsZero() {
		opts.End = now.AddDate(0, 0, defaultWindowDays)
	}

	accounts, err := f.store.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		f.logger.Warn("no calendar accounts connected")
		return &FetchResult{Events: []Event{}}, nil
	}

	filter := toSet(opts.FilterCalendars)
	exclude := toSet(opts.ExcludeCalendars)

	result := &FetchResult{}
	successes := 0
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, account := range accounts {
		if !account.Valid {
			f.logger.Warn("skipping account with invalid credentials",
				logging.AccountHash(account.Email))
			continue
		}

		client := f.clients(account)
		calendars := f.discoverCalendars(ctx, account, client)

		for _, cal := range calendars {
			if cal.ID == "" {
				continue
			}
			if len(filter) > 0 && !filter[cal.ID] {
				continue
			}
			if exclude[cal.ID] {
				continue
			}

			g.Go(func() error {
				events, err := client.ListEvents(ctx, cal.ID, cal.Summary, opts.Start, opts.End, opts.MaxPerCalendar)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					f.logger.Error("calendar fetch failed",
						logging.AccountHash(account.Email),
						logging.Calendar(cal.ID),
						logging.Err(err))
					result.Failures = append(result.Failures, FetchFailure{
						AccountEmail: account.Email,
						CalendarID:   cal.ID,
						Err:          err,
					})
					return nil
				}
				result.Events = append(result.Events, events...)
				successes++
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A failure on every calendar is a service fault, not a partial result;
	// surfacing it lets the caller's breaker and stale path engage instead of
	// caching an empty result over known-good data.
	if successes == 0 && len(result.Failures) > 0 {
		return nil, &upstream.ConnectionError{Service: ServiceName, Err: result.Failures[0].Err}
	}

	// Zero start times sort first.
	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Start.Before(result.Events[j].Start)
	})

	f.logger.Info("multi-account fetch complete",
		slog.Int("events", len(result.Events)),
		slog.Int("failures", len(result.Failures)))
	return result, nil
}

// discoverCalendars returns the account's stored calendar set when one is
// configured; a user-curated subset is never overwritten. Only an account
// with no stored calendars triggers discovery, whose full result is
// persisted as that account's default set.
func (f *Fetcher) discoverCalendars(ctx context.Context, account Account, client *Client) []CalendarInfo {
	stored, err := f.store.CalendarsFor(ctx, account.ID)
	if err != nil {
		f.logger.Warn("failed to read stored calendars",
			logging.AccountHash(account.Email),
			logging.Err(err))
	}
	if len(stored) > 0 {
		return stored
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		f.logger.Error("calendar discovery failed",
			logging.AccountHash(account.Email),
			logging.Err(err))
		return nil
	}
	if storeErr := f.store.StoreCalendars(ctx, account.ID, calendars); storeErr != nil {
		f.logger.Warn("failed to persist calendar list",
			logging.AccountHash(account.Email),
			logging.Err(storeErr))
	}
	return calendars
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
