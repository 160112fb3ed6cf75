// Package tasks_tools registers the Todoist-backed MCP tools: project,
// task, and label listings with cached fallbacks, completed-task reviews,
// and task mutations including recurring schedules.
package tasks_tools
