package tasks_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/tasks"
	"github.com/weekrev/weekrev/internal/tools/batch"
	"github.com/weekrev/weekrev/internal/tools/common"
)

// RegisterTasksTools registers all Todoist-related tools with the MCP server
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register task read tools: %w", err)
	}
	if !readOnly {
		if err := registerWriteTools(s, sc); err != nil {
			return fmt.Errorf("failed to register task write tools: %w", err)
		}
	}
	return nil
}

// registerReadTools registers the listing and health tools. Their results
// degrade to cached data when Todoist is unreachable.
func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listProjectsTool := mcp.NewTool("tasks_list_projects",
		mcp.WithDescription("List all Todoist projects for the account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
	)

	s.AddTool(listProjectsTool, common.InstrumentedToolHandler("tasks_list_projects", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			projects, err := svc.ProjectsWithFallback(ctx)
			if err != nil {
				return common.ErrorResult("Failed to list projects", err), nil
			}

			result, _ := json.MarshalIndent(projects, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	listTasksTool := mcp.NewTool("tasks_list_tasks",
		mcp.WithDescription("List active Todoist tasks with optional filters"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("projectId",
			mcp.Description("Only return tasks in this project"),
		),
		mcp.WithString("label",
			mcp.Description("Only return tasks carrying this label"),
		),
		mcp.WithString("filter",
			mcp.Description("Todoist filter expression, e.g. 'today | overdue'"),
		),
	)

	s.AddTool(listTasksTool, common.InstrumentedToolHandler("tasks_list_tasks", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			q := tasks.TaskQuery{}
			if v, ok := args["projectId"].(string); ok {
				q.ProjectID = v
			}
			if v, ok := args["label"].(string); ok {
				q.Label = v
			}
			if v, ok := args["filter"].(string); ok {
				q.Filter = v
			}

			taskList, err := svc.TasksWithFallback(ctx, q)
			if err != nil {
				return common.ErrorResult("Failed to list tasks", err), nil
			}

			result, _ := json.MarshalIndent(taskList, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	listLabelsTool := mcp.NewTool("tasks_list_labels",
		mcp.WithDescription("List all Todoist labels for the account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
	)

	s.AddTool(listLabelsTool, common.InstrumentedToolHandler("tasks_list_labels", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			labels, err := svc.LabelsWithFallback(ctx)
			if err != nil {
				return common.ErrorResult("Failed to list labels", err), nil
			}

			result, _ := json.MarshalIndent(labels, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	listCompletedTool := mcp.NewTool("tasks_list_completed",
		mcp.WithDescription("List recently completed Todoist tasks, e.g. for a weekly review"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("since",
			mcp.Description("Only return tasks completed after this time (ISO date or datetime)"),
		),
		mcp.WithString("until",
			mcp.Description("Only return tasks completed before this time (ISO date or datetime)"),
		),
		mcp.WithString("projectId",
			mcp.Description("Only return tasks completed in this project"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of tasks to return (capped at 200)"),
		),
	)

	s.AddTool(listCompletedTool, common.InstrumentedToolHandler("tasks_list_completed", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			q := tasks.CompletedQuery{}
			if v, ok := args["since"].(string); ok {
				q.Since = v
			}
			if v, ok := args["until"].(string); ok {
				q.Until = v
			}
			if v, ok := args["projectId"].(string); ok {
				q.ProjectID = v
			}
			if v, ok := args["limit"].(float64); ok {
				q.Limit = int(v)
			}

			page, err := svc.CompletedTasksWithFallback(ctx, q)
			if err != nil {
				return common.ErrorResult("Failed to list completed tasks", err), nil
			}

			result, _ := json.MarshalIndent(page, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	healthTool := mcp.NewTool("tasks_service_health",
		mcp.WithDescription("Report whether the Todoist service is currently reachable"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
	)

	s.AddTool(healthTool, common.InstrumentedToolHandler("tasks_service_health", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			if svc.Healthy(ctx) {
				return mcp.NewToolResultText("Todoist is reachable"), nil
			}
			return mcp.NewToolResultText("Todoist is currently unreachable; listings fall back to cached data"), nil
		}))

	return nil
}

// registerWriteTools registers the mutation tools. Writes bypass the cache
// and breaker so they never succeed silently against stale state.
func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createTaskTool := mcp.NewTool("tasks_create_task",
		mcp.WithDescription("Create a new Todoist task"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The task content, e.g. 'Prepare weekly review'"),
		),
		mcp.WithString("description",
			mcp.Description("Longer task description"),
		),
		mcp.WithString("projectId",
			mcp.Description("Project to create the task in (default: Inbox)"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority from 1 (normal) to 4 (urgent)"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma-separated list of label names"),
		),
		mcp.WithString("dueString",
			mcp.Description("Natural-language due date, e.g. 'tomorrow at 9am' or 'every monday'"),
		),
	)

	s.AddTool(createTaskTool, common.InstrumentedToolHandler("tasks_create_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			content, ok := args["content"].(string)
			if !ok || content == "" {
				return mcp.NewToolResultError("content is required"), nil
			}

			input := tasks.TaskInput{Content: content}
			if v, ok := args["description"].(string); ok {
				input.Description = v
			}
			if v, ok := args["projectId"].(string); ok {
				input.ProjectID = v
			}
			if v, ok := args["priority"].(float64); ok {
				input.Priority = int(v)
			}
			if v, ok := args["labels"].(string); ok {
				input.Labels = splitLabels(v)
			}
			if v, ok := args["dueString"].(string); ok {
				input.DueString = v
			}

			task, err := svc.CreateTask(ctx, input)
			if err != nil {
				return common.ErrorResult("Failed to create task", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Task created successfully:\n%s", string(result))), nil
		}))

	createRecurringTool := mcp.NewTool("tasks_create_recurring_task",
		mcp.WithDescription("Create a recurring Todoist task from a repeating due pattern"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The task content"),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Repeating due pattern, e.g. 'every monday', 'daily', 'every workday'"),
		),
		mcp.WithString("projectId",
			mcp.Description("Project to create the task in (default: Inbox)"),
		),
	)

	s.AddTool(createRecurringTool, common.InstrumentedToolHandler("tasks_create_recurring_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			content, ok := args["content"].(string)
			if !ok || content == "" {
				return mcp.NewToolResultError("content is required"), nil
			}
			pattern, ok := args["pattern"].(string)
			if !ok || pattern == "" {
				return mcp.NewToolResultError("pattern is required"), nil
			}

			input := tasks.TaskInput{Content: content}
			if v, ok := args["projectId"].(string); ok {
				input.ProjectID = v
			}

			task, err := svc.CreateRecurringTask(ctx, input, pattern)
			if err != nil {
				return common.ErrorResult("Failed to create recurring task", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Recurring task created successfully:\n%s", string(result))), nil
		}))

	updateTaskTool := mcp.NewTool("tasks_update_task",
		mcp.WithDescription("Update an existing Todoist task"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to update"),
		),
		mcp.WithString("content",
			mcp.Description("New task content"),
		),
		mcp.WithString("description",
			mcp.Description("New task description"),
		),
		mcp.WithString("dueString",
			mcp.Description("New natural-language due date"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma-separated label names; replaces the existing label set"),
		),
	)

	s.AddTool(updateTaskTool, common.InstrumentedToolHandler("tasks_update_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			taskID, ok := args["taskId"].(string)
			if !ok || taskID == "" {
				return mcp.NewToolResultError("taskId is required"), nil
			}

			update := tasks.TaskUpdate{}
			if v, ok := args["content"].(string); ok {
				update.Content = v
			}
			if v, ok := args["description"].(string); ok {
				update.Description = v
			}
			if v, ok := args["dueString"].(string); ok {
				update.DueString = v
			}
			if v, ok := args["labels"].(string); ok && v != "" {
				update.Labels = splitLabels(v)
			}

			task, err := svc.UpdateTask(ctx, taskID, update)
			if err != nil {
				return common.ErrorResult("Failed to update task", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Task updated successfully:\n%s", string(result))), nil
		}))

	updateRecurringTool := mcp.NewTool("tasks_update_recurring_pattern",
		mcp.WithDescription("Change the repeating due pattern of an existing task"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to update"),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Repeating due pattern, e.g. 'every friday'"),
		),
	)

	s.AddTool(updateRecurringTool, common.InstrumentedToolHandler("tasks_update_recurring_pattern", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			taskID, ok := args["taskId"].(string)
			if !ok || taskID == "" {
				return mcp.NewToolResultError("taskId is required"), nil
			}
			pattern, ok := args["pattern"].(string)
			if !ok || pattern == "" {
				return mcp.NewToolResultError("pattern is required"), nil
			}

			task, err := svc.UpdateRecurringPattern(ctx, taskID, pattern)
			if err != nil {
				return common.ErrorResult("Failed to update recurring pattern", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Recurring pattern updated successfully:\n%s", string(result))), nil
		}))

	completeTasksTool := mcp.NewTool("tasks_complete_tasks",
		mcp.WithDescription("Mark one or more Todoist tasks as completed"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to complete"),
		),
	)

	s.AddTool(completeTasksTool, common.InstrumentedToolHandler("tasks_complete_tasks", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			taskIDs, err := batch.ParseIDs(args["taskIds"], "taskIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			summary := batch.Run(ctx, taskIDs, func(ctx context.Context, taskID string) (string, error) {
				if err := svc.CompleteTask(ctx, taskID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Task %s completed", taskID), nil
			})

			return mcp.NewToolResultText(summary.Format()), nil
		}))

	reopenTaskTool := mcp.NewTool("tasks_reopen_task",
		mcp.WithDescription("Reopen a completed Todoist task"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to reopen"),
		),
	)

	s.AddTool(reopenTaskTool, common.InstrumentedToolHandler("tasks_reopen_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			taskID, ok := args["taskId"].(string)
			if !ok || taskID == "" {
				return mcp.NewToolResultError("taskId is required"), nil
			}

			if err := svc.ReopenTask(ctx, taskID); err != nil {
				return common.ErrorResult("Failed to reopen task", err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Task %s reopened successfully", taskID)), nil
		}))

	deleteTaskTool := mcp.NewTool("tasks_delete_task",
		mcp.WithDescription("Delete a Todoist task"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to delete"),
		),
	)

	s.AddTool(deleteTaskTool, common.InstrumentedToolHandler("tasks_delete_task", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			taskID, ok := args["taskId"].(string)
			if !ok || taskID == "" {
				return mcp.NewToolResultError("taskId is required"), nil
			}

			if err := svc.DeleteTask(ctx, taskID); err != nil {
				return common.ErrorResult("Failed to delete task", err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted successfully", taskID)), nil
		}))

	setPriorityTool := mcp.NewTool("tasks_set_priority",
		mcp.WithDescription("Set the priority of a Todoist task"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Todoist accounts."),
		),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task"),
		),
		mcp.WithNumber("priority",
			mcp.Required(),
			mcp.Description("Priority from 1 (normal) to 4 (urgent)"),
		),
	)

	s.AddTool(setPriorityTool, common.InstrumentedToolHandler("tasks_set_priority", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})
			svc := sc.TasksServiceForAccount(common.GetAccountFromArgs(args))

			taskID, ok := args["taskId"].(string)
			if !ok || taskID == "" {
				return mcp.NewToolResultError("taskId is required"), nil
			}
			priority, ok := args["priority"].(float64)
			if !ok {
				return mcp.NewToolResultError("priority is required"), nil
			}

			task, err := svc.SetTaskPriority(ctx, taskID, int(priority))
			if err != nil {
				return common.ErrorResult("Failed to set task priority", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Task priority updated:\n%s", string(result))), nil
		}))

	return nil
}

// splitLabels parses a comma-separated list of label names
func splitLabels(labelsStr string) []string {
	var labels []string
	for _, label := range strings.Split(labelsStr, ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
