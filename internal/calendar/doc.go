// Package calendar fetches and analyzes events across multiple connected
// accounts.
//
// The Client speaks the calendar REST API for one account through the shared
// upstream executor. The Fetcher fans out over every account and calendar
// with bounded concurrency and merges the results into one normalized,
// time-sorted event list. The analyzer functions are pure computation over
// that list: summaries, accomplishment extraction, availability, free-slot
// search, and conflict detection.
package calendar
