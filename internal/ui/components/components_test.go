package components

import (
	"strings"
	"testing"
	"time"

	"github.com/ldi/daybook/internal/stats"
	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

var today = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func TestTaskList(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Title: "Buy milk", Category: models.CategoryGrocery, Priority: models.PriorityHigh, DueDate: "2026-10-15"},
		{ID: "2", Title: "Call mum", Category: models.CategoryPersonal, Priority: models.PriorityLow},
	}
	l := NewTaskList(views.Today, tasks, today, 80)
	l.Cursor = 1

	view := l.View()
	if !strings.Contains(view, "Today (2)") {
		t.Errorf("expected header with count, got:\n%s", view)
	}
	if !strings.Contains(view, "[ ] Buy milk") {
		t.Errorf("expected unchecked row for Buy milk")
	}
	if !strings.Contains(view, "> [ ] Call mum") {
		t.Errorf("expected cursor on Call mum")
	}
	if strings.Index(view, "Buy milk") > strings.Index(view, "Call mum") {
		t.Errorf("expected rows in filter order")
	}
}

func TestTaskListEmptyState(t *testing.T) {
	view := NewTaskList(views.Inbox, nil, today, 80).View()
	if !strings.Contains(view, "Your inbox is empty") {
		t.Errorf("expected empty message, got:\n%s", view)
	}
}

func TestTaskListGrouped(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Title: "Later", DueDate: "2026-10-20"},
		{ID: "b", Title: "Soon", DueDate: "2026-10-16"},
	}
	view := NewTaskList(views.Upcoming, tasks, today, 80).View()

	tomorrow := strings.Index(view, "Tomorrow")
	tuesday := strings.Index(view, "Tuesday, October 20")
	if tomorrow == -1 || tuesday == -1 {
		t.Fatalf("expected day headers, got:\n%s", view)
	}
	if !(tomorrow < strings.Index(view, "Soon") && tuesday < strings.Index(view, "Later")) {
		t.Errorf("expected tasks under their day headers:\n%s", view)
	}
	if tomorrow > tuesday {
		t.Errorf("expected earliest day first")
	}
}

func TestTaskListCompletedRow(t *testing.T) {
	done := today
	tasks := []models.Task{{ID: "1", Title: "Pay rent", Completed: true, CompletedDate: &done}}
	view := NewTaskList(views.Completed, tasks, today, 80).View()
	if !strings.Contains(view, "[x] Pay rent") {
		t.Errorf("expected checked row, got:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("short strings should be kept, got %q", got)
	}
}

func TestStatsCard(t *testing.T) {
	done := today
	tasks := []models.Task{
		{ID: "1", DueDate: "2026-10-15", Category: models.CategoryWork, Completed: true, CompletedDate: &done},
		{ID: "2", DueDate: "2026-10-15", Category: models.CategoryWork},
	}
	c := &StatsCard{Greeting: "Good morning", Name: "Ada", Summary: stats.Summarize(tasks, today), Width: 60}
	view := c.View()

	for _, want := range []string{"Good morning, Ada", "Overall", " 50%", "Work", "Last 7 days", "Oct 15", "1/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in stats card:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Gym") {
		t.Error("categories without tasks should be left out")
	}
}

func TestStatsCardEmpty(t *testing.T) {
	c := &StatsCard{Summary: stats.Summarize(nil, today)}
	if view := c.View(); !strings.Contains(view, "No tasks yet") {
		t.Errorf("expected placeholder, got:\n%s", view)
	}
}
