package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ldi/daybook/pkg/models"
)

var ErrReminderNotFound = errors.New("reminder not found")

const reminderColumns = `id, task_id, reminder_at, message, user_email, status, created_at`

func scanReminder(row interface{ Scan(...any) error }) (*models.ScheduledReminder, error) {
	r := &models.ScheduledReminder{}
	err := row.Scan(&r.ID, &r.TaskID, &r.ReminderDateTime, &r.Message, &r.UserEmail, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateReminder stores a reminder with status scheduled. A new UUID is
// assigned when r.ID is empty.
func (db *DB) CreateReminder(ctx context.Context, r *models.ScheduledReminder) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = models.ReminderStatusScheduled
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.ReminderDateTime, r.Message, r.UserEmail, r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// GetReminder returns nil when no reminder has the given id.
func (db *DB) GetReminder(ctx context.Context, id string) (*models.ScheduledReminder, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return r, nil
}

// ListReminders returns reminders ordered by trigger time, optionally only
// those for one task.
func (db *DB) ListReminders(ctx context.Context, taskID *string) ([]*models.ScheduledReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE 1=1`
	args := []any{}
	if taskID != nil {
		query += " AND task_id = ?"
		args = append(args, *taskID)
	}
	query += " ORDER BY reminder_at ASC, created_at ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []*models.ScheduledReminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return reminders, nil
}

// UpdateReminder applies patch and returns the stored result.
func (db *DB) UpdateReminder(ctx context.Context, id string, patch models.ReminderPatch) (*models.ScheduledReminder, error) {
	r, err := db.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReminderNotFound
	}
	if patch.ReminderDateTime != nil {
		r.ReminderDateTime = *patch.ReminderDateTime
	}
	if patch.Message != nil {
		r.Message = *patch.Message
	}

	_, err = db.ExecContext(ctx, `UPDATE reminders SET reminder_at = ?, message = ? WHERE id = ?`,
		r.ReminderDateTime, r.Message, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	return r, nil
}

func (db *DB) DeleteReminder(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrReminderNotFound
	}
	return nil
}
