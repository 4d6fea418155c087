package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Category string

const (
	CategoryPersonal Category = "Personal"
	CategoryWork     Category = "Work"
	CategoryGrocery  Category = "Grocery"
	CategoryGym      Category = "Gym"
	CategoryHealth   Category = "Health"
	CategoryFinance  Category = "Finance"
	CategoryTravel   Category = "Travel"
)

// Categories is the fixed category enumeration in sidebar order.
var Categories = []Category{
	CategoryPersonal,
	CategoryWork,
	CategoryGrocery,
	CategoryGym,
	CategoryHealth,
	CategoryFinance,
	CategoryTravel,
}

// Known reports whether c is one of the enumerated categories.
// Matching is case-sensitive.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Task is the single persisted entity. The JSON names match the stored
// record so exported collections round-trip unchanged.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CreatedDate   time.Time  `json:"createdDate"`
	DueDate       string     `json:"dueDate"`
	Priority      Priority   `json:"priority"`
	Category      Category   `json:"category"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// HasDueDate reports whether the task belongs to a dated view rather than the inbox.
func (t Task) HasDueDate() bool {
	return t.DueDate != ""
}

// TaskInput carries the fields accepted on creation. Only Title is required.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Category    Category `json:"category,omitempty"`
}

// TaskPatch holds optional replacements for an existing task. Nil fields are
// left alone; an empty DueDate clears the due date.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Category == nil && p.Completed == nil
}
