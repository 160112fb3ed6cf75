// Package cmd implements the command-line interface for weekrev.
//
// This package provides the following commands:
//   - review: Print a weekly review of completed tasks and meetings
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//
// The review command is the default command when no subcommand is specified.
package cmd
