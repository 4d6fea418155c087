package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/daybook/internal/stats"
	"github.com/ldi/daybook/pkg/models"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	bandColors = map[stats.Band]lipgloss.Color{
		stats.BandHigh:   lipgloss.Color("42"),
		stats.BandMedium: lipgloss.Color("214"),
		stats.BandLow:    lipgloss.Color("196"),
	}
)

const barWidth = 20

// StatsCard renders the profile summary with a bar per weekday.
type StatsCard struct {
	Greeting string
	Name     string
	Summary  stats.Summary
	Width    int
}

func (c *StatsCard) View() string {
	var lines []string

	heading := c.Greeting
	if c.Name != "" {
		heading = fmt.Sprintf("%s, %s", c.Greeting, c.Name)
	}
	if heading != "" {
		lines = append(lines, cardTitleStyle.Render(heading), "")
	}

	s := c.Summary
	lines = append(lines,
		fmt.Sprintf("Overall   %s %3.0f%%  (%d/%d)", bar(s.OverallProgress), s.OverallProgress, s.Completed, s.Total),
		fmt.Sprintf("Today     %s %3.0f%%  (%d/%d)", bar(s.Today.Percentage), s.Today.Percentage, s.Today.Completed, s.Today.Total),
		"",
		cardTitleStyle.Render("Categories"),
	)

	listed := false
	for _, cat := range models.Categories {
		cs, ok := s.Categories[cat]
		if !ok {
			continue
		}
		listed = true
		lines = append(lines, fmt.Sprintf("%-9s %s %3.0f%%  (%d/%d)", cat, bar(cs.Percentage), cs.Percentage, cs.Completed, cs.Total))
	}
	if !listed {
		lines = append(lines, placeholderStyle.Render("No tasks yet"))
	}

	lines = append(lines, "", cardTitleStyle.Render("Last 7 days"))
	for _, d := range s.Weekly {
		lines = append(lines, fmt.Sprintf("%-9s %s %d/%d", d.Label, bar(d.Percentage), d.Completed, d.Assigned))
	}

	style := cardStyle
	if c.Width > 0 {
		style = style.Width(c.Width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func bar(percentage float64) string {
	filled := int(percentage / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	color := bandColors[stats.BandFor(percentage)]
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render(strings.Repeat("░", barWidth-filled))
}
