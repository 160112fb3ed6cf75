package calendar

import (
	"testing"
	"time"
)

func TestEventIsThisWeek(t *testing.T) {
	// A Wednesday; the week runs Monday March 2 through Sunday March 8.
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{name: "monday start of week", start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), want: true},
		{name: "sunday end of week", start: time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), want: true},
		{name: "previous sunday", start: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), want: false},
		{name: "next monday", start: time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Start: tt.start}
			if got := e.IsThisWeek(now); got != tt.want {
				t.Errorf("IsThisWeek(%s) = %v, want %v", tt.start.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}
