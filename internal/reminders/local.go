package reminders

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/ldi/daybook/internal/db"
	"github.com/ldi/daybook/pkg/models"
)

// LocalScheduler keeps reminders in the local database with status
// scheduled. Nothing is ever sent.
type LocalScheduler struct {
	db     *db.DB
	logger *log.Logger
}

func NewLocalScheduler(database *db.DB, logger *log.Logger) *LocalScheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &LocalScheduler{db: database, logger: logger}
}

func (l *LocalScheduler) Schedule(ctx context.Context, req models.ReminderRequest) (*models.ScheduledReminder, error) {
	r := &models.ScheduledReminder{
		TaskID:           req.TaskID,
		ReminderDateTime: req.ReminderDateTime,
		Message:          req.Message,
		UserEmail:        req.UserEmail,
		Status:           models.ReminderStatusScheduled,
	}
	if err := l.db.CreateReminder(ctx, r); err != nil {
		return nil, err
	}
	l.logger.Warn("Email delivery not configured, reminder stored locally",
		"id", r.ID, "to", r.UserEmail, "at", r.ReminderDateTime)
	return r, nil
}

func (l *LocalScheduler) List(ctx context.Context) ([]*models.ScheduledReminder, error) {
	return l.db.ListReminders(ctx, nil)
}

func (l *LocalScheduler) Cancel(ctx context.Context, id string) error {
	return notFound(l.db.DeleteReminder(ctx, id))
}

func (l *LocalScheduler) Update(ctx context.Context, id string, patch models.ReminderPatch) (*models.ScheduledReminder, error) {
	r, err := l.db.UpdateReminder(ctx, id, patch)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

func notFound(err error) error {
	if errors.Is(err, db.ErrReminderNotFound) {
		return ErrNotFound
	}
	return err
}
