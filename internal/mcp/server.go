package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/internal/auth"
	"github.com/ldi/daybook/internal/reminders"
	"github.com/ldi/daybook/internal/stats"
	"github.com/ldi/daybook/internal/tasks"
	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

const viewHelp = "View: today, inbox, upcoming, completed, or category:<Name>"

// NewServer creates a new MCP server over the task store.
func NewServer(store *tasks.Store, reminderSvc *reminders.Service, users auth.Provider) *server.MCPServer {
	s := server.NewMCPServer("Daybook", "0.1.0")

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task. Only the title is required."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD; omit for the inbox")),
		mcp.WithString("priority", mcp.Description("low, medium (default) or high")),
		mcp.WithString("category", mcp.Description("Personal (default), Work, Grocery, Gym, Health, Finance or Travel")),
	), createTaskHandler(store))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. Omitted fields are kept; an empty due_date clears it."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("due_date", mcp.Description("New due date (YYYY-MM-DD)")),
		mcp.WithString("priority", mcp.Description("New priority")),
		mcp.WithString("category", mcp.Description("New category")),
		mcp.WithBoolean("completed", mcp.Description("Mark completed or reopen")),
	), updateTaskHandler(store))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), deleteTaskHandler(store))

	s.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip a task between open and completed."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), toggleTaskHandler(store))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks in a view, optionally narrowed by a search query."),
		mcp.WithString("view", mcp.Description(viewHelp+" (default today)")),
		mcp.WithString("query", mcp.Description("Case-insensitive text matched against title and description")),
	), listTasksHandler(store))

	s.AddTool(mcp.NewTool("group_tasks",
		mcp.WithDescription("List tasks of a view grouped by due date, earliest first."),
		mcp.WithString("view", mcp.Description(viewHelp+" (default upcoming)")),
		mcp.WithString("query", mcp.Description("Search query")),
	), groupTasksHandler(store))

	s.AddTool(mcp.NewTool("reorder_task",
		mcp.WithDescription("Move a task within a view from one position to another."),
		mcp.WithString("view", mcp.Description(viewHelp), mcp.Required()),
		mcp.WithString("query", mcp.Description("Search query the positions refer to")),
		mcp.WithNumber("from", mcp.Description("Current zero-based position"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("Target zero-based position"), mcp.Required()),
	), reorderTaskHandler(store))

	s.AddTool(mcp.NewTool("get_counts",
		mcp.WithDescription("Open task counts per view and category."),
	), getCountsHandler(store))

	s.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Productivity stats: overall progress, today, categories and the last 7 days."),
	), getStatsHandler(store))

	s.AddTool(mcp.NewTool("set_reminder",
		mcp.WithDescription("Schedule an email reminder for a task."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD"), mcp.Required()),
		mcp.WithString("time", mcp.Description("Time as HH:MM"), mcp.Required()),
		mcp.WithString("message", mcp.Description("Message (defaults to 'Reminder: <title>')")),
	), setReminderHandler(store, reminderSvc, users))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// mutationResult reports a store mutation. A persistence failure is surfaced
// as an error result although the change already applies in memory.
func mutationResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, apperr.ErrPersistence) {
			return mcp.NewToolResultError(fmt.Sprintf("applied but not saved: %v", err)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func parseView(request mcp.CallToolRequest, def views.View) (views.View, error) {
	raw := mcp.ParseString(request, "view", "")
	if raw == "" {
		return def, nil
	}
	return views.ParseView(raw)
}

func createTaskHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := models.TaskInput{
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			DueDate:     mcp.ParseString(request, "due_date", ""),
			Priority:    models.Priority(mcp.ParseString(request, "priority", "")),
			Category:    models.Category(mcp.ParseString(request, "category", "")),
		}
		return mutationResult(store.Create(ctx, in))
	}
}

func updateTaskHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		var patch models.TaskPatch
		args, _ := request.Params.Arguments.(map[string]any)
		if title, ok := args["title"].(string); ok {
			patch.Title = &title
		}
		if description, ok := args["description"].(string); ok {
			patch.Description = &description
		}
		if due, ok := args["due_date"].(string); ok {
			patch.DueDate = &due
		}
		if priority, ok := args["priority"].(string); ok {
			p := models.Priority(priority)
			patch.Priority = &p
		}
		if category, ok := args["category"].(string); ok {
			c := models.Category(category)
			patch.Category = &c
		}
		if completed, ok := args["completed"].(bool); ok {
			patch.Completed = &completed
		}
		if patch.Empty() {
			return mcp.NewToolResultError("nothing to update"), nil
		}

		return mutationResult(store.Update(ctx, id, patch))
	}
}

func deleteTaskHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		if err := store.Delete(ctx, id); err != nil {
			return mutationResult(nil, err)
		}
		return mcp.NewToolResultText("Task deleted successfully"), nil
	}
}

func toggleTaskHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mutationResult(store.ToggleComplete(ctx, mcp.ParseString(request, "id", "")))
	}
}

func listTasksHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, err := parseView(request, views.Today)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query := mcp.ParseString(request, "query", "")
		list := views.Filter(store.All(), v, store.Now(), query)
		return jsonResult(map[string]any{"view": v.String(), "tasks": list})
	}
}

func groupTasksHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, err := parseView(request, views.Upcoming)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		now := store.Now()
		filtered := views.Filter(store.All(), v, now, mcp.ParseString(request, "query", ""))

		type group struct {
			Date  string        `json:"date"`
			Label string        `json:"label"`
			Tasks []models.Task `json:"tasks"`
		}
		groups := []group{}
		for _, g := range views.GroupByDueDate(filtered, now.Location()) {
			groups = append(groups, group{Date: g.Date, Label: views.DayLabel(g.Date, now, nil), Tasks: g.Tasks})
		}
		return jsonResult(map[string]any{"groups": groups})
	}
}

func reorderTaskHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, err := parseView(request, views.Today)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query := mcp.ParseString(request, "query", "")
		from := mcp.ParseInt(request, "from", views.NoDestination)
		to := mcp.ParseInt(request, "to", views.NoDestination)

		now := store.Now()
		all, err := store.Reorder(ctx, views.Filter(store.All(), v, now, query), from, to)
		if all == nil {
			return mutationResult(nil, err)
		}
		return mutationResult(map[string]any{"view": v.String(), "tasks": views.Filter(all, v, now, query)}, err)
	}
}

func getCountsHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(views.Count(store.All(), store.Now()))
	}
}

func getStatsHandler(store *tasks.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(stats.Summarize(store.All(), store.Now()))
	}
}

func setReminderHandler(store *tasks.Store, svc *reminders.Service, users auth.Provider) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := store.Get(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var email string
		if u, err := users.CurrentUser(ctx); err == nil {
			email = u.Email
		}
		r, err := svc.Set(ctx, task,
			mcp.ParseString(request, "date", ""),
			mcp.ParseString(request, "time", ""),
			mcp.ParseString(request, "message", ""),
			email)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(r)
	}
}
