package reminders

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/internal/db"
	"github.com/ldi/daybook/pkg/models"
)

var milk = models.Task{ID: "task-1", Title: "Buy milk"}

func TestBuildRequest(t *testing.T) {
	req, err := BuildRequest(milk, "2026-10-20", "09:30", "", "me@example.com")
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if req.ReminderDateTime != "2026-10-20T09:30" {
		t.Errorf("unexpected date-time %q", req.ReminderDateTime)
	}
	if req.Message != "Reminder: Buy milk" {
		t.Errorf("unexpected default message %q", req.Message)
	}
	if req.TaskID != "task-1" || req.UserEmail != "me@example.com" {
		t.Errorf("unexpected request %+v", req)
	}

	req, _ = BuildRequest(milk, "2026-10-20", "09:30", "Bring bags", "")
	if req.Message != "Bring bags" {
		t.Errorf("expected custom message, got %q", req.Message)
	}
}

func TestBuildRequestValidation(t *testing.T) {
	tests := []struct{ date, clock string }{
		{"", "09:30"},
		{"2026-10-20", ""},
		{"20/10/2026", "09:30"},
		{"2026-10-20", "9am"},
	}
	for _, tt := range tests {
		if _, err := BuildRequest(milk, tt.date, tt.clock, "", ""); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("BuildRequest(%q, %q): expected validation error, got %v", tt.date, tt.clock, err)
		}
	}
}

type failingScheduler struct{}

func (failingScheduler) Schedule(context.Context, models.ReminderRequest) (*models.ScheduledReminder, error) {
	return nil, errors.New("connection refused")
}
func (failingScheduler) List(context.Context) ([]*models.ScheduledReminder, error) {
	return nil, errors.New("connection refused")
}
func (failingScheduler) Cancel(context.Context, string) error { return errors.New("connection refused") }
func (failingScheduler) Update(context.Context, string, models.ReminderPatch) (*models.ScheduledReminder, error) {
	return nil, errors.New("connection refused")
}

func TestServiceWrapsSchedulerFailures(t *testing.T) {
	svc := NewService(failingScheduler{}, log.New(io.Discard))
	ctx := context.Background()

	_, err := svc.Set(ctx, milk, "2026-10-20", "09:30", "", "")
	var ext *apperr.ExternalServiceError
	if !errors.As(err, &ext) || ext.Service != "reminder" {
		t.Fatalf("expected reminder ExternalServiceError, got %v", err)
	}
	if _, err := svc.List(ctx); !errors.Is(err, apperr.ErrExternalService) {
		t.Errorf("List: expected external error, got %v", err)
	}
	if err := svc.Cancel(ctx, "x"); !errors.Is(err, apperr.ErrExternalService) {
		t.Errorf("Cancel: expected external error, got %v", err)
	}

	if _, err := svc.Set(ctx, milk, "", "", "", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("validation should run before the scheduler, got %v", err)
	}
}

func TestLocalScheduler(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}

	svc := NewService(NewLocalScheduler(database, log.New(io.Discard)), log.New(io.Discard))

	r, err := svc.Set(ctx, milk, "2026-10-20", "09:30", "", "me@example.com")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if r.Status != models.ReminderStatusScheduled {
		t.Errorf("expected scheduled, got %s", r.Status)
	}

	at := "2026-10-21T08:00"
	updated, err := svc.Update(ctx, r.ID, models.ReminderPatch{ReminderDateTime: &at})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ReminderDateTime != at {
		t.Errorf("expected rescheduled reminder, got %s", updated.ReminderDateTime)
	}

	bad := "tomorrow"
	if _, err := svc.Update(ctx, r.ID, models.ReminderPatch{ReminderDateTime: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one reminder, got %d (%v)", len(list), err)
	}

	if err := svc.Cancel(ctx, r.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := svc.Cancel(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second cancel, got %v", err)
	}
}
