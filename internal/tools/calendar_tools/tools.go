package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/tasks"
	"github.com/weekrev/weekrev/internal/tools/common"
)

// RegisterCalendarTools registers all calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	if err := registerSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}
	if err := registerAccountTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register account tools: %w", err)
	}
	return nil
}

// parseTimeArg reads an RFC3339 timestamp argument. The zero time is
// returned when the argument is absent.
func parseTimeArg(args map[string]interface{}, key string) (time.Time, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp: %v", key, err)
	}
	return t, nil
}

// splitIDs parses a comma-separated list of calendar IDs
func splitIDs(idsStr string) []string {
	var ids []string
	for _, id := range strings.Split(idsStr, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// windowOrDefault fills in a [now, now+7d) window when none was given.
func windowOrDefault(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = time.Now().UTC()
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, 7)
	}
	return start, end
}

// fetchOptionsFromArgs builds the shared event-window options for a request.
func fetchOptionsFromArgs(args map[string]interface{}) (calendar.FetchOptions, error) {
	opts := calendar.FetchOptions{}

	start, err := parseTimeArg(args, "timeMin")
	if err != nil {
		return opts, err
	}
	end, err := parseTimeArg(args, "timeMax")
	if err != nil {
		return opts, err
	}
	opts.Start = start
	opts.End = end

	if v, ok := args["calendarIds"].(string); ok && v != "" {
		opts.FilterCalendars = splitIDs(v)
	}
	if v, ok := args["excludeCalendarIds"].(string); ok && v != "" {
		opts.ExcludeCalendars = splitIDs(v)
	}
	return opts, nil
}

// registerAccountTools registers account management and status tools
func registerAccountTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listAccountsTool := mcp.NewTool("calendar_list_accounts",
		mcp.WithDescription("List the calendar accounts that are connected"),
	)

	s.AddTool(listAccountsTool, common.InstrumentedToolHandler("calendar_list_accounts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			accounts, err := sc.AccountStore().Accounts(ctx)
			if err != nil {
				return common.ErrorResult("Failed to list accounts", err), nil
			}

			result, _ := json.MarshalIndent(accounts, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	statusTool := mcp.NewTool("calendar_connection_status",
		mcp.WithDescription("Report breaker state, cache occupancy, and reachability of the upstream services"),
	)

	s.AddTool(statusTool, common.InstrumentedToolHandler("calendar_connection_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type serviceReport struct {
				server.ServiceStatus
				Healthy bool `json:"healthy"`
			}

			healthy := map[string]bool{
				tasks.ServiceName:    sc.TasksService().Healthy(ctx),
				calendar.ServiceName: sc.CalendarService().Healthy(ctx),
			}

			var reports []serviceReport
			for _, status := range sc.Status() {
				reports = append(reports, serviceReport{
					ServiceStatus: status,
					Healthy:       healthy[status.Service],
				})
			}

			result, _ := json.MarshalIndent(reports, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	if !readOnly {
		addAccountTool := mcp.NewTool("calendar_add_account",
			mcp.WithDescription("Connect a calendar account so its events are included in fetches"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Short identifier for the account, e.g. 'work'"),
			),
			mcp.WithString("email",
				mcp.Required(),
				mcp.Description("The account's email address"),
			),
		)

		s.AddTool(addAccountTool, common.InstrumentedToolHandler("calendar_add_account", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args, _ := request.Params.Arguments.(map[string]interface{})

				id, ok := args["id"].(string)
				if !ok || id == "" {
					return mcp.NewToolResultError("id is required"), nil
				}
				email, ok := args["email"].(string)
				if !ok || email == "" {
					return mcp.NewToolResultError("email is required"), nil
				}

				store, ok := sc.AccountStore().(*calendar.MemoryAccountStore)
				if !ok {
					return mcp.NewToolResultError("account store does not support adding accounts"), nil
				}
				store.AddAccount(calendar.Account{ID: id, Email: email, Valid: true})

				return mcp.NewToolResultText(fmt.Sprintf("Account %s (%s) connected", id, email)), nil
			}))
	}

	return nil
}
