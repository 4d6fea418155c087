// Package stats aggregates productivity numbers for the profile screen.
package stats

import (
	"strings"
	"time"

	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/pkg/models"
)

// WeekDays is the length of the rolling activity window.
const WeekDays = 7

type CategoryStat struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

type DayActivity struct {
	Date       string  `json:"date"`
	Label      string  `json:"label"`
	Assigned   int     `json:"assigned"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

type Progress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Percentage float64 `json:"percentage"`
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// OverallProgress is the share of all tasks that are completed, 0 for an
// empty collection.
func OverallProgress(tasks []models.Task) float64 {
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return percent(completed, len(tasks))
}

// CategoryBreakdown accumulates totals per category in a single pass.
// Tasks outside the category enumeration are left out.
func CategoryBreakdown(tasks []models.Task) map[models.Category]CategoryStat {
	out := make(map[models.Category]CategoryStat)
	for _, t := range tasks {
		if !t.Category.Known() {
			continue
		}
		s := out[t.Category]
		s.Total++
		if t.Completed {
			s.Completed++
		}
		out[t.Category] = s
	}
	for c, s := range out {
		s.Percentage = percent(s.Completed, s.Total)
		out[c] = s
	}
	return out
}

// WeeklyActivity covers the seven days ending today, oldest first. A day's
// assigned tasks are those due that day; its completed tasks are the
// assigned ones that were also marked done on that same day.
func WeeklyActivity(tasks []models.Task, today time.Time) []DayActivity {
	loc := today.Location()
	todayKey := calendar.Key(today)

	days := make([]DayActivity, WeekDays)
	index := make(map[string]int, WeekDays)
	for i := range WeekDays {
		key := calendar.AddDays(todayKey, i-(WeekDays-1))
		label := key
		if d, err := calendar.Parse(key, loc); err == nil {
			label = d.Format("Jan 02")
		}
		days[i] = DayActivity{Date: key, Label: label}
		index[key] = i
	}

	for _, t := range tasks {
		dueKey, ok := calendar.DateKey(t.DueDate, loc)
		if !ok {
			continue
		}
		i, inWindow := index[dueKey]
		if !inWindow {
			continue
		}
		days[i].Assigned++
		if !t.Completed {
			continue
		}
		if doneKey, ok := calendar.TimeKey(t.CompletedDate, loc); ok && doneKey == dueKey {
			days[i].Completed++
		}
	}

	for i := range days {
		days[i].Percentage = percent(days[i].Completed, days[i].Assigned)
	}
	return days
}

// TodayProgress compares completed against all tasks due today.
func TodayProgress(tasks []models.Task, today time.Time) Progress {
	loc := today.Location()
	todayKey := calendar.Key(today)

	var p Progress
	for _, t := range tasks {
		key, ok := calendar.DateKey(t.DueDate, loc)
		if !ok || key != todayKey {
			continue
		}
		p.Total++
		if t.Completed {
			p.Completed++
		}
	}
	p.Percentage = percent(p.Completed, p.Total)
	return p
}

func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	}
	return "Good evening"
}

type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// BandFor buckets a completion percentage for colouring.
func BandFor(percentage float64) Band {
	switch {
	case percentage >= 71:
		return BandHigh
	case percentage >= 31:
		return BandMedium
	}
	return BandLow
}

// Initials returns up to two upper-cased leading letters of name's words.
func Initials(name string) string {
	var first []rune
	for _, word := range strings.Fields(name) {
		first = append(first, []rune(word)[0])
		if len(first) == 2 {
			break
		}
	}
	return strings.ToUpper(string(first))
}

// Summary bundles everything the profile screen shows.
type Summary struct {
	Total           int                              `json:"total"`
	Completed       int                              `json:"completed"`
	OverallProgress float64                          `json:"overallProgress"`
	Today           Progress                         `json:"today"`
	Categories      map[models.Category]CategoryStat `json:"categories"`
	Weekly          []DayActivity                    `json:"weekly"`
}

func Summarize(tasks []models.Task, today time.Time) Summary {
	s := Summary{
		Total:           len(tasks),
		OverallProgress: OverallProgress(tasks),
		Today:           TodayProgress(tasks, today),
		Categories:      CategoryBreakdown(tasks),
		Weekly:          WeeklyActivity(tasks, today),
	}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	return s
}
