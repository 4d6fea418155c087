// Package reminders schedules email reminders for tasks. Delivery itself is
// out of scope: LocalScheduler records what a mail backend would send.
package reminders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/pkg/models"
)

const clockLayout = "15:04"

// BuildRequest assembles a reminder for task. Both date (YYYY-MM-DD) and
// clock (HH:MM) are required; an empty message becomes "Reminder: <title>".
func BuildRequest(task models.Task, date, clock, message, email string) (models.ReminderRequest, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return models.ReminderRequest{}, apperr.Validation("reminder", "date and time are required")
	}
	if !calendar.ValidDate(date) {
		return models.ReminderRequest{}, apperr.Validation("date", "must be a YYYY-MM-DD date")
	}
	if _, err := time.Parse(clockLayout, clock); err != nil {
		return models.ReminderRequest{}, apperr.Validation("time", "must be HH:MM")
	}
	if strings.TrimSpace(message) == "" {
		message = "Reminder: " + task.Title
	}
	return models.ReminderRequest{
		TaskID:           task.ID,
		ReminderDateTime: date + "T" + clock,
		Message:          message,
		UserEmail:        email,
	}, nil
}

// Scheduler is the remote reminder service.
type Scheduler interface {
	Schedule(ctx context.Context, req models.ReminderRequest) (*models.ScheduledReminder, error)
	List(ctx context.Context) ([]*models.ScheduledReminder, error)
	Cancel(ctx context.Context, id string) error
	Update(ctx context.Context, id string, patch models.ReminderPatch) (*models.ScheduledReminder, error)
}

// ErrNotFound is returned by schedulers for an unknown reminder id.
var ErrNotFound = errors.New("reminder not found")

// Service fronts a Scheduler. Scheduler failures surface as
// ExternalServiceError; task state is never touched.
type Service struct {
	scheduler Scheduler
	logger    *log.Logger
}

func NewService(scheduler Scheduler, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{scheduler: scheduler, logger: logger}
}

func (s *Service) wrap(id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("reminder", id)
	}
	s.logger.Error("Reminder service failed", "err", err)
	return apperr.External("reminder", err)
}

// Set builds and schedules a reminder for task.
func (s *Service) Set(ctx context.Context, task models.Task, date, clock, message, email string) (*models.ScheduledReminder, error) {
	req, err := BuildRequest(task, date, clock, message, email)
	if err != nil {
		return nil, err
	}
	r, err := s.scheduler.Schedule(ctx, req)
	if err != nil {
		return nil, s.wrap("", err)
	}
	s.logger.Info("Reminder scheduled", "id", r.ID, "task", task.ID, "at", r.ReminderDateTime)
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*models.ScheduledReminder, error) {
	rs, err := s.scheduler.List(ctx)
	if err != nil {
		return nil, s.wrap("", err)
	}
	return rs, nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	if err := s.scheduler.Cancel(ctx, id); err != nil {
		return s.wrap(id, err)
	}
	return nil
}

// Update reschedules or rewords a reminder. A new date-time must keep the
// <date>T<HH:MM> shape.
func (s *Service) Update(ctx context.Context, id string, patch models.ReminderPatch) (*models.ScheduledReminder, error) {
	if patch.ReminderDateTime != nil {
		date, clock, ok := strings.Cut(*patch.ReminderDateTime, "T")
		if !ok {
			return nil, apperr.Validation("reminderDateTime", "must be <date>T<time>")
		}
		if _, err := BuildRequest(models.Task{}, date, clock, "-", ""); err != nil {
			return nil, err
		}
	}
	r, err := s.scheduler.Update(ctx, id, patch)
	if err != nil {
		return nil, s.wrap(id, err)
	}
	return r, nil
}
