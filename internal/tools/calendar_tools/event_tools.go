package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/tools/common"
)

// registerEventTools registers event listing and digest tools
func registerEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List events merged across all connected calendar accounts, sorted by start time"),
		mcp.WithString("timeMin",
			mcp.Description("Window start (RFC3339, default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Window end (RFC3339, default: 30 days after the start)"),
		),
		mcp.WithString("calendarIds",
			mcp.Description("Comma-separated calendar IDs to include (default: all)"),
		),
		mcp.WithString("excludeCalendarIds",
			mcp.Description("Comma-separated calendar IDs to skip"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			opts, err := fetchOptionsFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			result, err := sc.CalendarService().EventsWithFallback(ctx, opts)
			if err != nil {
				return common.ErrorResult("Failed to list events", err), nil
			}

			body, _ := json.MarshalIndent(result, "", "  ")
			return mcp.NewToolResultText(string(body)), nil
		}))

	summarizeTool := mcp.NewTool("calendar_summarize_events",
		mcp.WithDescription("Summarize events in a window: totals, time in meetings, busiest day, and top organizer"),
		mcp.WithString("timeMin",
			mcp.Description("Window start (RFC3339, default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Window end (RFC3339, default: 7 days after the start)"),
		),
	)

	s.AddTool(summarizeTool, common.InstrumentedToolHandler("calendar_summarize_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			opts, err := fetchOptionsFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			opts.Start, opts.End = windowOrDefault(opts.Start, opts.End)

			result, err := sc.CalendarService().EventsWithFallback(ctx, opts)
			if err != nil {
				return common.ErrorResult("Failed to summarize events", err), nil
			}

			summary := calendar.AnalyzeEvents(result.Events, time.Now())
			body, _ := json.MarshalIndent(summary, "", "  ")
			return mcp.NewToolResultText(string(body)), nil
		}))

	accomplishmentsTool := mcp.NewTool("calendar_past_week_accomplishments",
		mcp.WithDescription("List meetings from the past week that look like accomplishments, newest first"),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated keywords to match instead of the built-in set"),
		),
	)

	s.AddTool(accomplishmentsTool, common.InstrumentedToolHandler("calendar_past_week_accomplishments", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			var keywords []string
			if v, ok := args["keywords"].(string); ok && v != "" {
				keywords = splitIDs(v)
			}

			now := time.Now().UTC()
			result, err := sc.CalendarService().EventsWithFallback(ctx, calendar.FetchOptions{
				Start: now.AddDate(0, 0, -7),
				End:   now,
			})
			if err != nil {
				return common.ErrorResult("Failed to fetch past week events", err), nil
			}

			accomplishments := calendar.PastWeekAccomplishments(result.Events, keywords, now)
			body, _ := json.MarshalIndent(accomplishments, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Found %d accomplishments in the past week:\n%s",
				len(accomplishments), string(body))), nil
		}))

	return nil
}
