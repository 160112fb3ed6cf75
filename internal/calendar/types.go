package calendar

import (
	"time"
)

// Attendee represents one event participant.
type Attendee struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Organizer      bool
	Self           bool
}

// Event is a normalized calendar event, independent of which account or
// calendar it came from. All-day events carry date-only Start and End with
// no meaningful duration.
type Event struct {
	ID           string
	Summary      string
	Description  string
	Start        time.Time
	End          time.Time
	AllDay       bool
	CalendarID   string
	CalendarName string
	AccountEmail string
	Location     string
	Attendees    []Attendee
	Created      time.Time
	Updated      time.Time
	Status       string // "confirmed", "cancelled", "tentative"
	Transparency string // "opaque" blocks time, "transparent" does not
	Visibility   string
	Recurring    bool
	RecurringID  string
	Organizer    string
	Creator      string
	HTMLLink     string
}

// DurationMinutes returns the event length in minutes, or 0 for all-day
// events and events missing either endpoint.
func (e *Event) DurationMinutes() int {
	if e.AllDay || e.Start.IsZero() || e.End.IsZero() {
		return 0
	}
	return int(e.End.Sub(e.Start).Minutes())
}

// IsPast reports whether the event has already ended. All-day events compare
// by date.
func (e *Event) IsPast(now time.Time) bool {
	if e.AllDay {
		return dateOf(e.Start).Before(dateOf(now))
	}
	return e.End.Before(now)
}

// IsUpcoming reports whether the event starts after now.
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.Start.After(now)
}

// IsToday reports whether the event starts on the same calendar day as now.
func (e *Event) IsToday(now time.Time) bool {
	return dateOf(e.Start).Equal(dateOf(now))
}

// IsThisWeek reports whether the event starts in the current Monday-to-Sunday
// week.
func (e *Event) IsThisWeek(now time.Time) bool {
	today := dateOf(now)
	weekday := int(today.Weekday()+6) % 7 // Monday = 0
	weekStart := today.AddDate(0, 0, -weekday)
	weekEnd := weekStart.AddDate(0, 0, 6)
	day := dateOf(e.Start)
	return !day.Before(weekStart) && !day.After(weekEnd)
}

// Busy reports whether the event blocks time: confirmed status and opaque
// transparency.
func (e *Event) Busy() bool {
	return e.Status == "confirmed" && e.Transparency == "opaque"
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CalendarInfo describes one calendar within an account.
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}

// Account is one connected calendar account.
type Account struct {
	ID    string // token lookup key
	Email string
	Valid bool // false when the stored credentials are known bad
}
