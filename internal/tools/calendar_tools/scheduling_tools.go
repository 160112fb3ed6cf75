package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/tools/common"
)

// workingHoursFromArgs reads the optional working-hours arguments,
// defaulting to 9:00 to 17:00.
func workingHoursFromArgs(args map[string]interface{}) (calendar.WorkingHours, error) {
	hours := calendar.DefaultWorkingHours()
	if v, ok := args["workStartHour"].(float64); ok {
		hours.StartHour = int(v)
	}
	if v, ok := args["workEndHour"].(float64); ok {
		hours.EndHour = int(v)
	}
	if hours.StartHour < 0 || hours.EndHour > 24 || hours.StartHour >= hours.EndHour {
		return hours, fmt.Errorf("working hours %d-%d are invalid", hours.StartHour, hours.EndHour)
	}
	return hours, nil
}

// registerSchedulingTools registers availability, free-slot, and conflict tools
func registerSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	availabilityTool := mcp.NewTool("calendar_analyze_availability",
		mcp.WithDescription("Analyze busy and free time per day within working hours"),
		mcp.WithString("timeMin",
			mcp.Description("Window start (RFC3339, default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Window end (RFC3339, default: 7 days after the start)"),
		),
		mcp.WithNumber("workStartHour",
			mcp.Description("Start of the working day, 0-23 (default: 9)"),
		),
		mcp.WithNumber("workEndHour",
			mcp.Description("End of the working day, 1-24 (default: 17)"),
		),
		mcp.WithBoolean("includeWeekends",
			mcp.Description("Include Saturday and Sunday (default: false)"),
		),
	)

	s.AddTool(availabilityTool, common.InstrumentedToolHandler("calendar_analyze_availability", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			opts, err := fetchOptionsFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			opts.Start, opts.End = windowOrDefault(opts.Start, opts.End)

			hours, err := workingHoursFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			includeWeekends, _ := args["includeWeekends"].(bool)

			result, err := sc.CalendarService().EventsWithFallback(ctx, opts)
			if err != nil {
				return common.ErrorResult("Failed to analyze availability", err), nil
			}

			availability := calendar.AnalyzeAvailability(result.Events, opts.Start, opts.End, hours, includeWeekends)
			body, _ := json.MarshalIndent(availability, "", "  ")
			return mcp.NewToolResultText(string(body)), nil
		}))

	freeSlotsTool := mcp.NewTool("calendar_find_free_slots",
		mcp.WithDescription("Find free slots of a given length within working hours"),
		mcp.WithString("timeMin",
			mcp.Description("Window start (RFC3339, default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Window end (RFC3339, default: 7 days after the start)"),
		),
		mcp.WithNumber("slotMinutes",
			mcp.Description("Minimum slot length in minutes (default: 60)"),
		),
		mcp.WithNumber("workStartHour",
			mcp.Description("Start of the working day, 0-23 (default: 9)"),
		),
		mcp.WithNumber("workEndHour",
			mcp.Description("End of the working day, 1-24 (default: 17)"),
		),
		mcp.WithBoolean("includeWeekends",
			mcp.Description("Include Saturday and Sunday (default: false)"),
		),
	)

	s.AddTool(freeSlotsTool, common.InstrumentedToolHandler("calendar_find_free_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			opts, err := fetchOptionsFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			opts.Start, opts.End = windowOrDefault(opts.Start, opts.End)

			hours, err := workingHoursFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			includeWeekends, _ := args["includeWeekends"].(bool)

			slotMinutes := 60
			if v, ok := args["slotMinutes"].(float64); ok {
				slotMinutes = int(v)
			}
			if slotMinutes <= 0 {
				return mcp.NewToolResultError("slotMinutes must be positive"), nil
			}

			result, err := sc.CalendarService().EventsWithFallback(ctx, opts)
			if err != nil {
				return common.ErrorResult("Failed to find free slots", err), nil
			}

			slots := calendar.FindFreeSlots(result.Events, opts.Start, opts.End, slotMinutes, hours, includeWeekends)
			body, _ := json.MarshalIndent(slots, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Found %d free slots:\n%s", len(slots), string(body))), nil
		}))

	conflictsTool := mcp.NewTool("calendar_detect_conflicts",
		mcp.WithDescription("Detect overlapping events across all connected accounts, with resolution suggestions"),
		mcp.WithString("timeMin",
			mcp.Description("Window start (RFC3339, default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Window end (RFC3339, default: 7 days after the start)"),
		),
	)

	s.AddTool(conflictsTool, common.InstrumentedToolHandler("calendar_detect_conflicts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			opts, err := fetchOptionsFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			opts.Start, opts.End = windowOrDefault(opts.Start, opts.End)

			result, err := sc.CalendarService().EventsWithFallback(ctx, opts)
			if err != nil {
				return common.ErrorResult("Failed to detect conflicts", err), nil
			}

			conflicts := calendar.DetectConflicts(result.Events, opts.Start, opts.End)
			if len(conflicts) == 0 {
				return mcp.NewToolResultText("No conflicts found in the requested window"), nil
			}

			body, _ := json.MarshalIndent(conflicts, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Found %d conflicts:\n%s", len(conflicts), string(body))), nil
		}))

	return nil
}
