// Package calendar_tools registers the calendar-backed MCP tools: merged
// multi-account event listings, past-week accomplishment digests,
// availability analysis, free-slot search, conflict detection, and
// connection status reporting.
package calendar_tools
