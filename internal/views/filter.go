// Package views derives the list views shown to the user from the canonical
// task collection. Every function here is pure: inputs are never modified and
// results are fresh slices.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/pkg/models"
)

type Kind string

const (
	KindToday     Kind = "today"
	KindInbox     Kind = "inbox"
	KindUpcoming  Kind = "upcoming"
	KindCompleted Kind = "completed"
	KindCategory  Kind = "category"
)

// View names a derived subset of the collection. Category is only set for
// KindCategory.
type View struct {
	Kind     Kind
	Category models.Category
}

var (
	Today     = View{Kind: KindToday}
	Inbox     = View{Kind: KindInbox}
	Upcoming  = View{Kind: KindUpcoming}
	Completed = View{Kind: KindCompleted}
)

func ForCategory(c models.Category) View {
	return View{Kind: KindCategory, Category: c}
}

func (v View) String() string {
	if v.Kind == KindCategory {
		return "category:" + string(v.Category)
	}
	return string(v.Kind)
}

// Title is the heading shown above the list.
func (v View) Title() string {
	switch v.Kind {
	case KindToday:
		return "Today"
	case KindInbox:
		return "Inbox"
	case KindUpcoming:
		return "Upcoming"
	case KindCompleted:
		return "Completed"
	}
	return string(v.Category)
}

// EmptyMessage is the placeholder for a view with no tasks.
func (v View) EmptyMessage() string {
	switch v.Kind {
	case KindToday:
		return "No tasks for today"
	case KindInbox:
		return "Your inbox is empty"
	case KindUpcoming:
		return "No upcoming tasks"
	case KindCompleted:
		return "No completed tasks"
	}
	return fmt.Sprintf("No %s tasks", strings.ToLower(string(v.Category)))
}

// ParseView accepts the fixed view names, "category:<Name>", or a bare
// category name. Category names are case-sensitive; an unknown category still
// parses and simply yields an empty view.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	switch Kind(s) {
	case KindToday:
		return Today, nil
	case KindInbox:
		return Inbox, nil
	case KindUpcoming:
		return Upcoming, nil
	case KindCompleted:
		return Completed, nil
	case "":
		return View{}, fmt.Errorf("view is empty")
	}
	if name, ok := strings.CutPrefix(s, "category:"); ok {
		if name == "" {
			return View{}, fmt.Errorf("category view needs a name")
		}
		return ForCategory(models.Category(name)), nil
	}
	return ForCategory(models.Category(s)), nil
}

// AllViews lists the fixed views followed by one view per category.
func AllViews() []View {
	out := []View{Today, Inbox, Upcoming, Completed}
	for _, c := range models.Categories {
		out = append(out, ForCategory(c))
	}
	return out
}

// Filter returns the tasks belonging to view on the calendar day of today,
// intersected with query when it is non-blank. Canonical order is preserved.
func Filter(tasks []models.Task, view View, today time.Time, query string) []models.Task {
	todayKey := calendar.Key(today)
	loc := today.Location()

	out := make([]models.Task, 0)
	for _, t := range tasks {
		if !inView(t, view, todayKey, loc) {
			continue
		}
		out = append(out, t)
	}
	return Search(out, query)
}

// Search keeps tasks whose title or description contains query,
// case-insensitively. A blank query returns a copy of tasks.
func Search(tasks []models.Task, query string) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if query == "" ||
			strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Description), query) {
			out = append(out, t)
		}
	}
	return out
}

func inView(t models.Task, view View, todayKey string, loc *time.Location) bool {
	switch view.Kind {
	case KindCompleted:
		return t.Completed
	case KindInbox:
		return !t.Completed && !t.HasDueDate()
	case KindToday:
		if t.Completed {
			return false
		}
		key, ok := calendar.DateKey(t.DueDate, loc)
		return ok && key == todayKey
	case KindUpcoming:
		if t.Completed {
			return false
		}
		key, ok := calendar.DateKey(t.DueDate, loc)
		return ok && key > todayKey
	case KindCategory:
		if !view.Category.Known() {
			return false
		}
		return !t.Completed && t.Category == view.Category
	}
	return false
}
