package models

import "time"

type ReminderStatus string

// ReminderStatusScheduled is the only state a local reminder reaches;
// delivery happens outside daybook.
const ReminderStatusScheduled ReminderStatus = "scheduled"

// ReminderRequest is what gets forwarded to a reminder scheduler.
type ReminderRequest struct {
	TaskID           string `json:"taskId"`
	ReminderDateTime string `json:"reminderDateTime"`
	Message          string `json:"message"`
	UserEmail        string `json:"userEmail,omitempty"`
}

// ScheduledReminder is the scheduler's acknowledgment.
type ScheduledReminder struct {
	ID               string         `json:"id"`
	TaskID           string         `json:"taskId"`
	ReminderDateTime string         `json:"reminderDateTime"`
	Message          string         `json:"message"`
	UserEmail        string         `json:"userEmail,omitempty"`
	Status           ReminderStatus `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// ReminderPatch holds optional replacements for a scheduled reminder.
type ReminderPatch struct {
	ReminderDateTime *string `json:"reminderDateTime,omitempty"`
	Message          *string `json:"message,omitempty"`
}
