package tasks

import (
	"context"
	"strings"
)

// recurringKeywords are the markers accepted in a recurring due string.
var recurringKeywords = []string{
	"every", "daily", "weekly", "monthly", "yearly",
	"quarterly", "workday", "weekend", "weekday",
}

// IsRecurring reports whether the task repeats.
func (t *Task) IsRecurring() bool {
	return t.Due != nil && t.Due.IsRecurring
}

// RecurringPattern returns the human pattern of a recurring task, such as
// "every monday", or an empty string for one-off tasks.
func (t *Task) RecurringPattern() string {
	if !t.IsRecurring() {
		return ""
	}
	return t.Due.String
}

// NextOccurrence returns the next occurrence date of a recurring task in
// ISO format, or an empty string for one-off tasks.
func (t *Task) NextOccurrence() string {
	if !t.IsRecurring() {
		return ""
	}
	return t.Due.Date
}

// IsValidRecurringPattern reports whether a due string looks like a
// recurring pattern Todoist will accept.
func IsValidRecurringPattern(dueString string) bool {
	pattern := strings.ToLower(strings.TrimSpace(dueString))
	if pattern == "" {
		return false
	}
	for _, keyword := range recurringKeywords {
		if strings.Contains(pattern, keyword) {
			return true
		}
	}
	return false
}

// CreateRecurringTask creates a task with a recurring due string such as
// "every day" or "every mon, fri". The pattern is validated up front so an
// unparseable string fails before the API call.
func (c *Client) CreateRecurringTask(ctx context.Context, input TaskInput, dueString string) (*Task, error) {
	if !IsValidRecurringPattern(dueString) {
		return nil, &RecurringPatternError{Pattern: dueString}
	}
	input.DueString = dueString
	input.DueDate = ""
	return c.CreateTask(ctx, input)
}

// UpdateRecurringPattern changes the recurrence of an existing task.
func (c *Client) UpdateRecurringPattern(ctx context.Context, taskID, dueString string) (*Task, error) {
	if !IsValidRecurringPattern(dueString) {
		return nil, &RecurringPatternError{Pattern: dueString}
	}
	return c.UpdateTask(ctx, taskID, TaskUpdate{DueString: dueString})
}

// RecurringPatternError indicates a due string that does not describe a
// recurrence.
type RecurringPatternError struct {
	Pattern string
}

func (e *RecurringPatternError) Error() string {
	return "not a recurring pattern: " + e.Pattern
}
