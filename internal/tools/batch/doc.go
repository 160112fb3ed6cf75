// Package batch runs a tool operation over several IDs at once and reports
// per-item outcomes, so one bad ID does not abort the rest.
package batch
