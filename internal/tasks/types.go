package tasks

// Project represents a Todoist project
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	Order          int    `json:"order,omitempty"`
	CommentCount   int    `json:"comment_count,omitempty"`
	IsShared       bool   `json:"is_shared,omitempty"`
	IsFavorite     bool   `json:"is_favorite,omitempty"`
	IsInboxProject bool   `json:"is_inbox_project,omitempty"`
	URL            string `json:"url,omitempty"`
}

// Due describes when a task is due. For recurring tasks Date holds the next
// occurrence and String holds the human pattern ("every monday").
type Due struct {
	Date        string `json:"date,omitempty"`
	Datetime    string `json:"datetime,omitempty"`
	String      string `json:"string,omitempty"`
	IsRecurring bool   `json:"is_recurring,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// Task represents a Todoist task
type Task struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
	ParentID     string   `json:"parent_id,omitempty"`
	Content      string   `json:"content"`
	Description  string   `json:"description,omitempty"`
	IsCompleted  bool     `json:"is_completed,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Order        int      `json:"order,omitempty"`
	Priority     int      `json:"priority,omitempty"`
	Due          *Due     `json:"due,omitempty"`
	URL          string   `json:"url,omitempty"`
	CommentCount int      `json:"comment_count,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	CreatorID    string   `json:"creator_id,omitempty"`
	AssigneeID   string   `json:"assignee_id,omitempty"`
}

// Label represents a Todoist label
type Label struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Order      int    `json:"order,omitempty"`
	IsFavorite bool   `json:"is_favorite,omitempty"`
}

// User holds the account details returned by the user endpoint. It doubles
// as the lightweight reachability probe for health checks.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	IsPro    bool   `json:"is_premium,omitempty"`
}

// CompletedItem is one entry from the completed-tasks endpoint.
type CompletedItem struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	ProjectID   string `json:"project_id,omitempty"`
	Content     string `json:"content"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// CompletedPage is one page of completed tasks with its pagination cursor.
// An empty NextCursor means the last page.
type CompletedPage struct {
	Items      []CompletedItem `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// TaskQuery narrows a task listing. All fields are optional.
type TaskQuery struct {
	ProjectID string
	Label     string
	Filter    string // Todoist filter expression, e.g. "today | overdue"
	Lang      string // language for parsing the filter expression
}

// CompletedQuery narrows a completed-tasks listing.
type CompletedQuery struct {
	ProjectID string
	Since     string // ISO date or datetime
	Until     string // ISO date or datetime
	Limit     int    // capped at the API maximum of 200
}

// TaskInput carries the fields for creating a task. Content is required.
type TaskInput struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	AssigneeID  string   `json:"assignee_id,omitempty"`
}

// TaskUpdate carries the fields for a partial task update. Nil or empty
// fields are left untouched; Labels replaces the whole label set when
// non-nil.
type TaskUpdate struct {
	Content     string   `json:"content,omitempty"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
}
