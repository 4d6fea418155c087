package views

import (
	"time"

	"github.com/ldi/daybook/pkg/models"
)

// Counts are the badge numbers shown next to each view in the sidebar.
type Counts struct {
	Today      int                     `json:"today"`
	Inbox      int                     `json:"inbox"`
	Upcoming   int                     `json:"upcoming"`
	Completed  int                     `json:"completed"`
	Categories map[models.Category]int `json:"categories"`
}

// Count tallies every view. Category counts cover incomplete tasks of the
// enumerated categories only, and every category has an entry.
func Count(tasks []models.Task, today time.Time) Counts {
	c := Counts{Categories: make(map[models.Category]int, len(models.Categories))}
	for _, cat := range models.Categories {
		c.Categories[cat] = 0
	}

	for _, v := range []View{Today, Inbox, Upcoming, Completed} {
		n := len(Filter(tasks, v, today, ""))
		switch v.Kind {
		case KindToday:
			c.Today = n
		case KindInbox:
			c.Inbox = n
		case KindUpcoming:
			c.Upcoming = n
		case KindCompleted:
			c.Completed = n
		}
	}

	for _, t := range tasks {
		if t.Completed || !t.Category.Known() {
			continue
		}
		c.Categories[t.Category]++
	}
	return c
}

// For returns the badge number for a single view.
func (c Counts) For(v View) int {
	switch v.Kind {
	case KindToday:
		return c.Today
	case KindInbox:
		return c.Inbox
	case KindUpcoming:
		return c.Upcoming
	case KindCompleted:
		return c.Completed
	}
	return c.Categories[v.Category]
}
