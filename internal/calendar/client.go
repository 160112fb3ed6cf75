package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/weekrev/weekrev/internal/upstream"
)

// ServiceName identifies this upstream in errors, logs, and metrics.
const ServiceName = "calendar"

// DefaultBaseURL is the calendar REST endpoint.
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

const (
	// maxResultsPerPage is the largest page size the events endpoint accepts.
	maxResultsPerPage = 250

	// maxEventsPerCalendar caps how many events one calendar contributes,
	// regardless of how many pages the API offers.
	maxEventsPerCalendar = 1000
)

// Wire types for the calendar REST responses.

type apiEventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type apiPerson struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type apiAttendee struct {
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
	Self           bool   `json:"self,omitempty"`
}

type apiEvent struct {
	ID               string        `json:"id"`
	Summary          string        `json:"summary,omitempty"`
	Description      string        `json:"description,omitempty"`
	Location         string        `json:"location,omitempty"`
	Start            *apiEventTime `json:"start,omitempty"`
	End              *apiEventTime `json:"end,omitempty"`
	Status           string        `json:"status,omitempty"`
	Transparency     string        `json:"transparency,omitempty"`
	Visibility       string        `json:"visibility,omitempty"`
	Created          string        `json:"created,omitempty"`
	Updated          string        `json:"updated,omitempty"`
	RecurringEventID string        `json:"recurringEventId,omitempty"`
	Attendees        []apiAttendee `json:"attendees,omitempty"`
	Organizer        *apiPerson    `json:"organizer,omitempty"`
	Creator          *apiPerson    `json:"creator,omitempty"`
	HTMLLink         string        `json:"htmlLink,omitempty"`
}

type apiEventPage struct {
	Items         []apiEvent `json:"items"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

type apiCalendarEntry struct {
	ID          string `json:"id"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	Primary     bool   `json:"primary,omitempty"`
	AccessRole  string `json:"accessRole,omitempty"`
}

type apiCalendarListPage struct {
	Items         []apiCalendarEntry `json:"items"`
	NextPageToken string             `json:"nextPageToken,omitempty"`
}

// Client is a calendar REST client for one account.
type Client struct {
	exec    *upstream.Executor
	account string
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a calendar client for the given account.
func NewClient(exec *upstream.Executor, account string, opts ...ClientOption) *Client {
	c := &Client{
		exec:    exec,
		account: account,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.exec.Do(ctx, upstream.Request{
		Service: ServiceName,
		Account: c.account,
		Method:  http.MethodGet,
		URL:     c.baseURL + "/" + endpoint,
		Query:   query,
	}, out)
}

// ListCalendars lists all calendars visible to the account.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	pageToken := ""
	for {
		query := url.Values{}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page apiCalendarListPage
		if err := c.get(ctx, "users/me/calendarList", query, &page); err != nil {
			return nil, fmt.Errorf("failed to list calendars: %w", err)
		}
		for _, entry := range page.Items {
			calendars = append(calendars, CalendarInfo{
				ID:          entry.ID,
				Summary:     entry.Summary,
				Description: entry.Description,
				TimeZone:    entry.TimeZone,
				Primary:     entry.Primary,
				AccessRole:  entry.AccessRole,
			})
		}
		if page.NextPageToken == "" {
			return calendars, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListEvents fetches events from one calendar within the window, following
// pagination until maxResults (or the per-calendar cap) is reached.
// Recurring events come back expanded into instances, ordered by start time.
// Events the API returns in a shape we cannot parse are skipped.
func (c *Client) ListEvents(ctx context.Context, calendarID, calendarName string, start, end time.Time, maxResults int) ([]Event, error) {
	if maxResults <= 0 || maxResults > maxEventsPerCalendar {
		maxResults = maxEventsPerCalendar
	}

	var events []Event
	pageToken := ""
	for len(events) < maxResults {
		pageSize := maxResultsPerPage
		if remaining := maxResults - len(events); remaining < pageSize {
			pageSize = remaining
		}

		query := url.Values{}
		query.Set("timeMin", start.UTC().Format(time.RFC3339))
		query.Set("timeMax", end.UTC().Format(time.RFC3339))
		query.Set("singleEvents", "true")
		query.Set("orderBy", "startTime")
		query.Set("maxResults", strconv.Itoa(pageSize))
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page apiEventPage
		endpoint := "calendars/" + url.PathEscape(calendarID) + "/events"
		if err := c.get(ctx, endpoint, query, &page); err != nil {
			return nil, fmt.Errorf("failed to list events for calendar %s: %w", calendarID, err)
		}

		for _, raw := range page.Items {
			if event, ok := parseEvent(raw, calendarID, calendarName, c.account); ok {
				events = append(events, event)
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return events, nil
}

// Ping performs a lightweight reachability check against the calendar list.
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("maxResults", "1")
	return c.exec.Do(ctx, upstream.Request{
		Service: ServiceName,
		Account: c.account,
		Method:  http.MethodGet,
		URL:     c.baseURL + "/users/me/calendarList",
		Query:   query,
	}, nil)
}

// parseEvent normalizes one raw API event. An all-day event carries a
// date-only start; timed events carry RFC 3339 datetimes. Events with
// unparseable times are dropped rather than failing the whole page.
func parseEvent(raw apiEvent, calendarID, calendarName, accountEmail string) (Event, bool) {
	if raw.Start == nil || raw.End == nil {
		return Event{}, false
	}

	allDay := raw.Start.Date != "" && raw.Start.DateTime == ""
	var start, end time.Time
	var err error
	if allDay {
		start, err = time.Parse("2006-01-02", raw.Start.Date)
		if err != nil {
			return Event{}, false
		}
		end, err = time.Parse("2006-01-02", raw.End.Date)
		if err != nil {
			return Event{}, false
		}
	} else {
		start, err = time.Parse(time.RFC3339, raw.Start.DateTime)
		if err != nil {
			return Event{}, false
		}
		end, err = time.Parse(time.RFC3339, raw.End.DateTime)
		if err != nil {
			return Event{}, false
		}
	}

	event := Event{
		ID:           raw.ID,
		Summary:      raw.Summary,
		Description:  raw.Description,
		Start:        start,
		End:          end,
		AllDay:       allDay,
		CalendarID:   calendarID,
		CalendarName: calendarName,
		AccountEmail: accountEmail,
		Location:     raw.Location,
		Status:       raw.Status,
		Transparency: raw.Transparency,
		Visibility:   raw.Visibility,
		Recurring:    raw.RecurringEventID != "",
		RecurringID:  raw.RecurringEventID,
		HTMLLink:     raw.HTMLLink,
	}
	if event.Summary == "" {
		event.Summary = "Untitled Event"
	}
	if event.Status == "" {
		event.Status = "confirmed"
	}
	if event.Transparency == "" {
		event.Transparency = "opaque"
	}
	if event.Visibility == "" {
		event.Visibility = "default"
	}
	if raw.Organizer != nil {
		event.Organizer = raw.Organizer.Email
	}
	if raw.Creator != nil {
		event.Creator = raw.Creator.Email
	}
	if t, err := time.Parse(time.RFC3339, raw.Created); err == nil {
		event.Created = t
	}
	if t, err := time.Parse(time.RFC3339, raw.Updated); err == nil {
		event.Updated = t
	}
	for _, att := range raw.Attendees {
		status := att.ResponseStatus
		if status == "" {
			status = "needsAction"
		}
		event.Attendees = append(event.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: status,
			Organizer:      att.Organizer,
			Self:           att.Self,
		})
	}
	return event, true
}
