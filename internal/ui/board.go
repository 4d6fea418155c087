package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/internal/tasks"
	"github.com/ldi/daybook/internal/ui/components"
	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("12")).Bold(true).Underline(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).PaddingLeft(1)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(1)
)

type boardMode int

const (
	modeBrowse boardMode = iota
	modeSearch
	modeAdd
	modeConfirmDelete
)

// BoardModel is the interactive task board. It reads and mutates the store
// directly; every key press re-derives the visible list.
type BoardModel struct {
	ctx    context.Context
	store  *tasks.Store
	views  []views.View
	active int
	cursor int
	mode   boardMode
	search textinput.Model
	input  textinput.Model
	status string
	err    error
	width  int
}

func NewBoardModel(ctx context.Context, store *tasks.Store) BoardModel {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"

	input := textinput.New()
	input.Prompt = "+ "
	input.Placeholder = "new task title"
	input.CharLimit = 200

	return BoardModel{
		ctx:    ctx,
		store:  store,
		views:  views.AllViews(),
		search: search,
		input:  input,
	}
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

func (m BoardModel) view() views.View {
	return m.views[m.active]
}

// visible lists the active view in the order its rows are drawn, so the
// upcoming view follows its day groups.
func (m BoardModel) visible() []models.Task {
	now := m.store.Now()
	list := views.Filter(m.store.All(), m.view(), now, m.search.Value())
	if m.view() != views.Upcoming {
		return list
	}
	flat := make([]models.Task, 0, len(list))
	for _, g := range views.GroupByDueDate(list, now.Location()) {
		flat = append(flat, g.Tasks...)
	}
	return flat
}

func (m *BoardModel) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// report records the outcome of a mutation. A persistence failure keeps
// the change on screen and says it was not saved.
func (m *BoardModel) report(status string, err error) {
	m.err = nil
	m.status = status
	if err == nil {
		return
	}
	if errors.Is(err, apperr.ErrPersistence) {
		m.status = status + " (not saved)"
	}
	m.err = err
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m BoardModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.visible()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab":
		m.active = (m.active + 1) % len(m.views)
		m.cursor = 0
	case "shift+tab":
		m.active = (m.active - 1 + len(m.views)) % len(m.views)
		m.cursor = 0

	case "down", "j":
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case " ", "x":
		if len(list) == 0 {
			break
		}
		m.toggle(list[m.cursor].ID)

	case "d":
		if len(list) > 0 {
			m.mode = modeConfirmDelete
		}

	case "J", "K":
		if len(list) == 0 {
			break
		}
		to := m.cursor + 1
		if msg.String() == "K" {
			to = m.cursor - 1
		}
		if to < 0 || to >= len(list) {
			break
		}
		_, err := m.store.Reorder(m.ctx, list, m.cursor, to)
		m.report("Moved", err)
		if err == nil || errors.Is(err, apperr.ErrPersistence) {
			m.cursor = to
		}

	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()

	case "a":
		m.mode = modeAdd
		m.input.SetValue("")
		return m, m.input.Focus()

	case "esc":
		m.search.SetValue("")
		m.clampCursor()
	}
	return m, nil
}

func (m *BoardModel) toggle(id string) {
	defer m.clampCursor()
	t, err := m.store.ToggleComplete(m.ctx, id)
	if err != nil && !errors.Is(err, apperr.ErrPersistence) {
		m.report("", err)
		return
	}
	verb := "Reopened"
	if t.Completed {
		verb = "Completed"
	}
	m.report(fmt.Sprintf("%s %q", verb, t.Title), err)
}

func (m BoardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.search.SetValue("")
		m.search.Blur()
		m.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m BoardModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		in := models.TaskInput{Title: m.input.Value()}
		v := m.view()
		switch v.Kind {
		case views.KindToday:
			in.DueDate = m.store.Now().Format("2006-01-02")
		case views.KindCategory:
			in.Category = v.Category
		}
		t, err := m.store.Create(m.ctx, in)
		if err != nil && !errors.Is(err, apperr.ErrPersistence) {
			m.report("", err)
			return m, nil
		}
		m.report(fmt.Sprintf("Added %q", t.Title), err)
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BoardModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	if msg.String() != "y" {
		m.report("Delete cancelled", nil)
		return m, nil
	}
	list := m.visible()
	if m.cursor >= len(list) {
		return m, nil
	}
	t := list[m.cursor]
	m.report(fmt.Sprintf("Deleted %q", t.Title), m.store.Delete(m.ctx, t.ID))
	m.clampCursor()
	return m, nil
}

func (m BoardModel) View() string {
	var b strings.Builder

	counts := views.Count(m.store.All(), m.store.Now())
	var tabs []string
	for i, v := range m.views {
		label := fmt.Sprintf("%s %d", v.Title(), counts.For(v))
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	list := components.NewTaskList(m.view(), m.visible(), m.store.Now(), m.width)
	list.Cursor = m.cursor
	b.WriteString(list.View())
	b.WriteString("\n\n")

	switch m.mode {
	case modeSearch:
		b.WriteString(m.search.View())
	case modeAdd:
		b.WriteString(m.input.View())
	case modeConfirmDelete:
		b.WriteString(errorStyle.Render("Delete this task? (y/n)"))
	default:
		if q := m.search.Value(); q != "" {
			b.WriteString(statusStyle.Render(fmt.Sprintf("filter: %q (esc to clear)", q)))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(strings.TrimSpace(m.status + " " + m.err.Error())))
		} else if m.status != "" {
			b.WriteString(statusStyle.Render(m.status))
		}
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("tab views • j/k move • space toggle • J/K reorder • a add • d delete • / search • q quit"))
	b.WriteString("\n")
	return b.String()
}

// RunBoard opens the board full screen until the user quits.
func RunBoard(ctx context.Context, store *tasks.Store) error {
	_, err := tea.NewProgram(NewBoardModel(ctx, store), tea.WithAltScreen()).Run()
	return err
}
