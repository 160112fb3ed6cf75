// Package server holds the long-lived state behind the MCP server: the
// shared token provider and request executor, the per-account resilient
// service wrappers, and the health and metrics HTTP endpoints.
package server
