package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weekrev/weekrev/internal/calendar"
)

func TestFetchWarning(t *testing.T) {
	line := fetchWarning(calendar.FetchFailure{
		AccountEmail: "me@corp.example",
		CalendarID:   "team",
		Err:          errors.New("connection refused"),
	})
	assert.Contains(t, line, "me@corp.example")
	assert.Contains(t, line, "team")
	assert.Contains(t, line, "connection refused")
}

func TestReviewCmdFlagDefaults(t *testing.T) {
	cmd := newReviewCmd()
	assert.Equal(t, "default", cmd.Flags().Lookup("account").DefValue)
	assert.Equal(t, "7", cmd.Flags().Lookup("days").DefValue)
}
