package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/weekrev/weekrev/internal/upstream"
)

// ServiceName identifies this upstream in errors, logs, and metrics.
const ServiceName = "todoist"

// DefaultBaseURL is the Todoist v2 REST endpoint.
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// maxCompletedLimit is the API maximum page size for completed tasks.
const maxCompletedLimit = 200

// maxCompletedPages caps how many cursor-linked pages one CompletedTasks
// call will follow.
const maxCompletedPages = 5

// Client is a Todoist REST client for one account.
type Client struct {
	exec    *upstream.Executor
	account string
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a Todoist client for the given account. The executor
// supplies authentication, retries, and error classification.
func NewClient(exec *upstream.Executor, account string, opts ...ClientOption) *Client {
	c := &Client{
		exec:    exec,
		account: account,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	return c.exec.Do(ctx, upstream.Request{
		Service: ServiceName,
		Account: c.account,
		Method:  method,
		URL:     c.baseURL + "/" + endpoint,
		Query:   query,
		Body:    body,
	}, out)
}

// Projects lists all projects for the account.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.call(ctx, http.MethodGet, "projects", nil, nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Project retrieves a single project by ID.
func (c *Client) Project(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	if err := c.call(ctx, http.MethodGet, "projects/"+projectID, nil, nil, &project); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// Tasks lists active tasks matching the query.
func (c *Client) Tasks(ctx context.Context, q TaskQuery) ([]Task, error) {
	query := url.Values{}
	if q.ProjectID != "" {
		query.Set("project_id", q.ProjectID)
	}
	if q.Label != "" {
		query.Set("label", q.Label)
	}
	if q.Filter != "" {
		query.Set("filter", q.Filter)
	}
	if q.Lang != "" {
		query.Set("lang", q.Lang)
	}

	var result []Task
	if err := c.call(ctx, http.MethodGet, "tasks", query, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return result, nil
}

// Task retrieves a single task by ID.
func (c *Client) Task(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.call(ctx, http.MethodGet, "tasks/"+taskID, nil, nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// Labels lists all labels for the account.
func (c *Client) Labels(ctx context.Context) ([]Label, error) {
	var labels []Label
	if err := c.call(ctx, http.MethodGet, "labels", nil, nil, &labels); err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// CompletedTasks returns completed tasks in the query window, following
// pagination cursors internally up to maxCompletedPages. The returned
// NextCursor is empty when the window was exhausted; otherwise it resumes
// where the page cap stopped. Requires Todoist Pro.
func (c *Client) CompletedTasks(ctx context.Context, q CompletedQuery) (*CompletedPage, error) {
	limit := q.Limit
	if limit <= 0 || limit > maxCompletedLimit {
		limit = maxCompletedLimit
	}

	result := &CompletedPage{}
	cursor := ""
	for page := 0; page < maxCompletedPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		if q.ProjectID != "" {
			query.Set("project_id", q.ProjectID)
		}
		if q.Since != "" {
			query.Set("since", q.Since)
		}
		if q.Until != "" {
			query.Set("until", q.Until)
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var current CompletedPage
		if err := c.call(ctx, http.MethodGet, "tasks/completed", query, nil, &current); err != nil {
			return nil, fmt.Errorf("failed to list completed tasks: %w", err)
		}
		result.Items = append(result.Items, current.Items...)
		result.NextCursor = current.NextCursor

		if q.Limit > 0 && len(result.Items) >= q.Limit {
			result.Items = result.Items[:q.Limit]
			break
		}
		if current.NextCursor == "" {
			break
		}
		cursor = current.NextCursor
	}
	return result, nil
}

// UserInfo returns the authenticated account's user record.
func (c *Client) UserInfo(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, http.MethodGet, "user", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	return &user, nil
}

// Ping performs a lightweight reachability check against the user endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "user", nil, nil, nil)
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, input TaskInput) (*Task, error) {
	var task Task
	if err := c.call(ctx, http.MethodPost, "tasks", nil, input, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// UpdateTask applies a partial update to an existing task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, update TaskUpdate) (*Task, error) {
	var task Task
	if err := c.call(ctx, http.MethodPost, "tasks/"+taskID, nil, update, &task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &task, nil
}

// CompleteTask marks a task as completed. For recurring tasks Todoist
// schedules the next occurrence automatically.
func (c *Client) CompleteTask(ctx context.Context, taskID string) error {
	if err := c.call(ctx, http.MethodPost, "tasks/"+taskID+"/close", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// ReopenTask reopens a completed task.
func (c *Client) ReopenTask(ctx context.Context, taskID string) error {
	if err := c.call(ctx, http.MethodPost, "tasks/"+taskID+"/reopen", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to reopen task: %w", err)
	}
	return nil
}

// DeleteTask permanently deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.call(ctx, http.MethodDelete, "tasks/"+taskID, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// SetTaskPriority sets a task's priority, 1 (normal) through 4 (urgent).
func (c *Client) SetTaskPriority(ctx context.Context, taskID string, priority int) (*Task, error) {
	if priority < 1 || priority > 4 {
		return nil, &upstream.ConfigError{
			Service: ServiceName,
			Reason:  fmt.Sprintf("priority must be between 1 and 4, got %d", priority),
		}
	}
	return c.UpdateTask(ctx, taskID, TaskUpdate{Priority: priority})
}
