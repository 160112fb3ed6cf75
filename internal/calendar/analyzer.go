package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Default working hours used by the availability analysis.
const (
	DefaultWorkStartHour = 9
	DefaultWorkEndHour   = 17
)

// DefaultSlotMinutes is the free-slot length searched for when the caller
// does not give one.
const DefaultSlotMinutes = 60

// accomplishmentKeywords mark events that likely represent work worth
// mentioning in a weekly review.
var accomplishmentKeywords = []string{
	"meeting", "presentation", "demo", "review", "project", "milestone",
	"delivery", "launch", "completion", "training", "workshop", "conference",
	"interview", "onboarding", "standup", "sync", "planning", "retrospective",
	"deployment", "release", "client", "customer", "stakeholder",
}

// Summary aggregates a set of events into counts and simple statistics.
type Summary struct {
	TotalEvents          int
	EventsByCalendar     map[string]int // "calendar (account)" -> count
	EventsByAccount      map[string]int
	EventsByDay          map[string]int // "2006-01-02" -> count
	TotalDurationMinutes int
	AverageDuration      float64 // minutes, 0 when no timed events
	BusiestDay           string
	BusiestAccount       string
	BusiestCalendar      string
	UpcomingEvents       int
	PastEvents           int
	AllDayEvents         int
	WorkingHoursEvents   int // started 9-17 on a weekday
	EveningEvents        int // started at or after 17 on a weekday
	WeekendEvents        int
}

// AnalyzeEvents computes summary statistics over events in a single pass.
func AnalyzeEvents(events []Event, now time.Time) *Summary {
	s := &Summary{
		EventsByCalendar: map[string]int{},
		EventsByAccount:  map[string]int{},
		EventsByDay:      map[string]int{},
	}
	if len(events) == 0 {
		return s
	}

	s.TotalEvents = len(events)
	durationCount := 0

	for i := range events {
		event := &events[i]

		calKey := fmt.Sprintf("%s (%s)", event.CalendarName, event.AccountEmail)
		s.EventsByCalendar[calKey]++
		s.EventsByAccount[event.AccountEmail]++
		s.EventsByDay[event.Start.Format("2006-01-02")]++

		if d := event.DurationMinutes(); d > 0 {
			s.TotalDurationMinutes += d
			durationCount++
		}

		if event.IsUpcoming(now) {
			s.UpcomingEvents++
		} else if event.IsPast(now) {
			s.PastEvents++
		}

		if event.AllDay {
			s.AllDayEvents++
		}

		if !event.AllDay && !event.Start.IsZero() {
			hour := event.Start.Hour()
			switch wd := event.Start.Weekday(); {
			case wd == time.Saturday || wd == time.Sunday:
				s.WeekendEvents++
			case hour >= DefaultWorkStartHour && hour < DefaultWorkEndHour:
				s.WorkingHoursEvents++
			case hour >= DefaultWorkEndHour:
				s.EveningEvents++
			}
		}
	}

	if durationCount > 0 {
		s.AverageDuration = float64(s.TotalDurationMinutes) / float64(durationCount)
	}
	s.BusiestDay = maxCountKey(s.EventsByDay)
	s.BusiestAccount = maxCountKey(s.EventsByAccount)
	s.BusiestCalendar = maxCountKey(s.EventsByCalendar)
	return s
}

// maxCountKey returns the key with the highest count. Ties go to the
// lexicographically smallest key so results are deterministic.
func maxCountKey(counts map[string]int) string {
	best := ""
	bestCount := -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best
}

// PastWeekAccomplishments returns events from the past 7 days that likely
// represent completed work, newest first. An event qualifies when its title
// or description contains an accomplishment keyword, it has 3 or more
// attendees, or it ran at least 30 minutes. A nil keywords slice uses the
// built-in list.
func PastWeekAccomplishments(events []Event, keywords []string, now time.Time) []Event {
	if keywords == nil {
		keywords = accomplishmentKeywords
	}

	today := dateOf(now)
	weekAgo := today.AddDate(0, 0, -7)

	var matched []Event
	for i := range events {
		event := events[i]
		if event.Start.IsZero() {
			continue
		}
		day := dateOf(event.Start)
		if day.Before(weekAgo) || day.After(today) {
			continue
		}
		if isAccomplishment(&event, keywords) {
			matched = append(matched, event)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Start.After(matched[j].Start)
	})
	return matched
}

func isAccomplishment(event *Event, keywords []string) bool {
	text := strings.ToLower(event.Summary + " " + event.Description)
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	if len(event.Attendees) >= 3 {
		return true
	}
	return event.DurationMinutes() >= 30
}

// WorkingHours is a daily working interval given as whole hours.
type WorkingHours struct {
	StartHour int
	EndHour   int
}

// DefaultWorkingHours is 9 to 17.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{StartHour: DefaultWorkStartHour, EndHour: DefaultWorkEndHour}
}

// BusyPeriod is one event's overlap with a day's working hours.
type BusyPeriod struct {
	Start           string // "15:04"
	End             string
	EventSummary    string
	DurationMinutes int
}

// DayAvailability is one day's busy/free breakdown.
type DayAvailability struct {
	BusyMinutes     int
	FreeMinutes     int
	BusyPeriods     []BusyPeriod
	AvailabilityPct float64
}

// Availability is the full availability analysis over a window.
type Availability struct {
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Days           map[string]DayAvailability // "2006-01-02" -> breakdown
	TotalBusyHours float64
	TotalFreeHours float64
	BusiestDays    []string // up to 3, most busy minutes first
	LightestDays   []string // up to 3, fewest busy minutes first
}

// AnalyzeAvailability computes per-day availability over the window.
// Only confirmed, opaque, timed events count as busy, and only the part of
// each event inside the working hours counts. Weekend days are skipped
// unless includeWeekends is set.
func AnalyzeAvailability(events []Event, start, end time.Time, hours WorkingHours, includeWeekends bool) *Availability {
	result := &Availability{
		PeriodStart: start,
		PeriodEnd:   end,
		Days:        map[string]DayAvailability{},
	}

	var busy []Event
	for i := range events {
		event := events[i]
		if event.Start.IsZero() || event.Start.Before(start) || event.Start.After(end) {
			continue
		}
		if !event.Busy() || event.AllDay {
			continue
		}
		busy = append(busy, event)
	}

	workingMinutes := (hours.EndHour - hours.StartHour) * 60

	type dayBusy struct {
		day     string
		minutes int
	}
	var days []dayBusy

	for day := dateOf(start); !day.After(dateOf(end)); day = day.AddDate(0, 0, 1) {
		if !includeWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			continue
		}

		workStart := day.Add(time.Duration(hours.StartHour) * time.Hour)
		workEnd := day.Add(time.Duration(hours.EndHour) * time.Hour)

		var periods []BusyPeriod
		busyMinutes := 0
		for i := range busy {
			event := &busy[i]
			if !dateOf(event.Start).Equal(day) {
				continue
			}

			overlapStart := maxTime(event.Start, workStart)
			overlapEnd := minTime(event.End, workEnd)
			if !overlapStart.Before(overlapEnd) {
				continue
			}

			minutes := int(overlapEnd.Sub(overlapStart).Minutes())
			busyMinutes += minutes
			periods = append(periods, BusyPeriod{
				Start:           overlapStart.Format("15:04"),
				End:             overlapEnd.Format("15:04"),
				EventSummary:    event.Summary,
				DurationMinutes: minutes,
			})
		}

		freeMinutes := workingMinutes - busyMinutes
		if freeMinutes < 0 {
			freeMinutes = 0
		}

		key := day.Format("2006-01-02")
		result.Days[key] = DayAvailability{
			BusyMinutes:     busyMinutes,
			FreeMinutes:     freeMinutes,
			BusyPeriods:     periods,
			AvailabilityPct: float64(freeMinutes) / float64(workingMinutes) * 100,
		}
		result.TotalBusyHours += float64(busyMinutes) / 60
		result.TotalFreeHours += float64(freeMinutes) / 60
		days = append(days, dayBusy{day: key, minutes: busyMinutes})
	}

	// Rank by busy minutes with the date as tiebreaker for determinism.
	sort.Slice(days, func(i, j int) bool {
		if days[i].minutes != days[j].minutes {
			return days[i].minutes < days[j].minutes
		}
		return days[i].day < days[j].day
	})
	for i := 0; i < len(days) && i < 3; i++ {
		result.LightestDays = append(result.LightestDays, days[i].day)
	}
	for i := len(days) - 1; i >= 0 && len(result.BusiestDays) < 3; i-- {
		result.BusiestDays = append(result.BusiestDays, days[i].day)
	}
	return result
}

// SlotType classifies where in the day a free slot sits.
type SlotType string

const (
	MorningSlot SlotType = "morning_slot"
	BetweenSlot SlotType = "between_events"
	EveningSlot SlotType = "evening_slot"
)

// FreeSlot is one bookable gap in the calendar.
type FreeSlot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Type            SlotType
}

// FindFreeSlots finds gaps of at least slotMinutes inside working hours.
// Per day it emits at most one morning slot before the first event, one slot
// per qualifying gap between events, and one evening slot after the last
// event. Emitted slots are capped at slotMinutes even when the gap is
// larger.
func FindFreeSlots(events []Event, start, end time.Time, slotMinutes int, hours WorkingHours, includeWeekends bool) []FreeSlot {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	slotDuration := time.Duration(slotMinutes) * time.Minute

	var slots []FreeSlot
	for day := dateOf(start); !day.After(dateOf(end)); day = day.AddDate(0, 0, 1) {
		if !includeWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			continue
		}

		var dayEvents []Event
		for i := range events {
			event := events[i]
			if dateOf(event.Start).Equal(day) && !event.AllDay && event.Busy() {
				dayEvents = append(dayEvents, event)
			}
		}
		sort.SliceStable(dayEvents, func(i, j int) bool {
			return dayEvents[i].Start.Before(dayEvents[j].Start)
		})

		workStart := day.Add(time.Duration(hours.StartHour) * time.Hour)
		workEnd := day.Add(time.Duration(hours.EndHour) * time.Hour)

		firstEventStart := workEnd
		if len(dayEvents) > 0 {
			firstEventStart = dayEvents[0].Start
		}
		if slot, ok := makeSlot(workStart, firstEventStart, slotDuration, MorningSlot); ok {
			slots = append(slots, slot)
		}

		for i := 0; i+1 < len(dayEvents); i++ {
			if slot, ok := makeSlot(dayEvents[i].End, dayEvents[i+1].Start, slotDuration, BetweenSlot); ok {
				slots = append(slots, slot)
			}
		}

		if len(dayEvents) > 0 {
			if slot, ok := makeSlot(dayEvents[len(dayEvents)-1].End, workEnd, slotDuration, EveningSlot); ok {
				slots = append(slots, slot)
			}
		}
	}
	return slots
}

// makeSlot emits a slot when the gap fits the requested duration, capping
// the slot length at that duration.
func makeSlot(gapStart, gapEnd time.Time, slotDuration time.Duration, kind SlotType) (FreeSlot, bool) {
	gap := gapEnd.Sub(gapStart)
	if gap < slotDuration {
		return FreeSlot{}, false
	}
	slotEnd := gapStart.Add(slotDuration)
	if slotEnd.After(gapEnd) {
		slotEnd = gapEnd
	}
	return FreeSlot{
		Start:           gapStart,
		End:             slotEnd,
		DurationMinutes: int(slotEnd.Sub(gapStart).Minutes()),
		Type:            kind,
	}, true
}

// Conflict is a pair of events that overlap in time.
type Conflict struct {
	First          Event
	Second         Event
	OverlapStart   time.Time
	OverlapEnd     time.Time
	OverlapMinutes int
	Suggestion     string
}

// DetectConflicts finds pairwise overlaps between busy timed events in the
// window, with a resolution suggestion per pair. Events are compared sorted
// by start so the scan stops as soon as overlaps become impossible.
func DetectConflicts(events []Event, start, end time.Time) []Conflict {
	var busy []Event
	for i := range events {
		event := events[i]
		if event.Start.IsZero() || event.AllDay || !event.Busy() {
			continue
		}
		if event.Start.After(end) || event.End.Before(start) {
			continue
		}
		busy = append(busy, event)
	}
	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	var conflicts []Conflict
	for i := 0; i < len(busy); i++ {
		for j := i + 1; j < len(busy); j++ {
			if !busy[j].Start.Before(busy[i].End) {
				break
			}
			overlapStart := maxTime(busy[i].Start, busy[j].Start)
			overlapEnd := minTime(busy[i].End, busy[j].End)
			conflicts = append(conflicts, Conflict{
				First:          busy[i],
				Second:         busy[j],
				OverlapStart:   overlapStart,
				OverlapEnd:     overlapEnd,
				OverlapMinutes: int(overlapEnd.Sub(overlapStart).Minutes()),
				Suggestion:     suggestResolution(&busy[i], &busy[j]),
			})
		}
	}
	return conflicts
}

func suggestResolution(a, b *Event) string {
	if a.AccountEmail != b.AccountEmail {
		return fmt.Sprintf("events span accounts %s and %s; decline one or mark one as free", a.AccountEmail, b.AccountEmail)
	}
	// The event with fewer attendees is usually cheaper to move.
	smaller := a
	if len(b.Attendees) < len(a.Attendees) {
		smaller = b
	}
	return fmt.Sprintf("consider rescheduling %q", smaller.Summary)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
