package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

var (
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	groupHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Bold(true).
				PaddingLeft(1)

	rowStyle = lipgloss.NewStyle().PaddingLeft(1)

	selectedRowStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(lipgloss.Color("12")).
				Bold(true)

	doneRowStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	metaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)

	priorityColors = map[models.Priority]lipgloss.Color{
		models.PriorityHigh:   lipgloss.Color("196"),
		models.PriorityMedium: lipgloss.Color("214"),
		models.PriorityLow:    lipgloss.Color("42"),
	}
)

// TaskList renders one view's tasks. Cursor is the highlighted row, -1 for
// none. With Grouped set, rows are split under day headers.
type TaskList struct {
	Title   string
	Empty   string
	Tasks   []models.Task
	Cursor  int
	Grouped bool
	Today   time.Time
	Width   int
}

func NewTaskList(v views.View, tasks []models.Task, today time.Time, width int) *TaskList {
	return &TaskList{
		Title:   v.Title(),
		Empty:   v.EmptyMessage(),
		Tasks:   tasks,
		Cursor:  -1,
		Grouped: v == views.Upcoming,
		Today:   today,
		Width:   width,
	}
}

func (l *TaskList) View() string {
	var b strings.Builder
	if l.Title != "" {
		b.WriteString(listHeaderStyle.Render(fmt.Sprintf("%s (%d)", l.Title, len(l.Tasks))))
		b.WriteString("\n")
	}

	if len(l.Tasks) == 0 {
		b.WriteString(placeholderStyle.Render(l.Empty))
		return b.String()
	}

	if !l.Grouped {
		for i, t := range l.Tasks {
			b.WriteString(l.row(i, t))
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	// Grouping keeps filter order, so a running index still lines up with
	// the cursor.
	index := make(map[string]int, len(l.Tasks))
	for i, t := range l.Tasks {
		index[t.ID] = i
	}
	for _, g := range views.GroupByDueDate(l.Tasks, l.Today.Location()) {
		b.WriteString(groupHeaderStyle.Render(views.DayLabel(g.Date, l.Today, nil)))
		b.WriteString("\n")
		for _, t := range g.Tasks {
			b.WriteString(l.row(index[t.ID], t))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (l *TaskList) row(i int, t models.Task) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	pointer := "  "
	style := rowStyle
	switch {
	case i == l.Cursor:
		pointer = "> "
		style = selectedRowStyle
	case t.Completed:
		style = doneRowStyle
	}

	title := fmt.Sprintf("%s%s %s", pointer, check, t.Title)
	if l.Width > 0 {
		title = truncate(title, l.Width/2)
	}
	return style.Render(title) + " " + l.meta(t)
}

func (l *TaskList) meta(t models.Task) string {
	dot := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render("●")
	parts := []string{string(t.Category)}
	if t.DueDate != "" && !l.Grouped {
		parts = append(parts, t.DueDate)
	}
	return dot + " " + metaStyle.Render(strings.Join(parts, " · "))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
