package views

import (
	"sort"
	"time"

	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/pkg/models"
)

// DateGroup is one day bucket of a grouped view.
type DateGroup struct {
	Date  string        `json:"date"`
	Tasks []models.Task `json:"tasks"`
}

// GroupByDueDate buckets tasks by due day. Tasks without a usable due date
// are skipped. Groups come back in ascending date order and each group keeps
// the order tasks had in the input.
func GroupByDueDate(tasks []models.Task, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.Local
	}
	index := make(map[string]int)
	var groups []DateGroup
	for _, t := range tasks {
		key, ok := calendar.DateKey(t.DueDate, loc)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Date: key})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Date < groups[b].Date
	})
	return groups
}

type Relation int

const (
	RelationOther Relation = iota
	RelationToday
	RelationTomorrow
)

// DayRelation compares a day key with today's calendar day.
func DayRelation(key string, today time.Time) Relation {
	todayKey := calendar.Key(today)
	switch key {
	case todayKey:
		return RelationToday
	case calendar.AddDays(todayKey, 1):
		return RelationTomorrow
	}
	return RelationOther
}

// DefaultDayFormat renders days that are neither today nor tomorrow.
func DefaultDayFormat(day time.Time) string {
	return day.Format("Monday, January 2")
}

// DayLabel is the heading of a date group. format may be nil.
func DayLabel(key string, today time.Time, format func(time.Time) string) string {
	switch DayRelation(key, today) {
	case RelationToday:
		return "Today"
	case RelationTomorrow:
		return "Tomorrow"
	}
	if format == nil {
		format = DefaultDayFormat
	}
	day, err := calendar.Parse(key, today.Location())
	if err != nil {
		return key
	}
	return format(day)
}
