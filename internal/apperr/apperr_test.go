package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", Validation("title", "is required"), ErrValidation},
		{"not found", NotFound("task", "abc"), ErrNotFound},
		{"persistence", &PersistenceError{Op: "save tasks", Err: cause}, ErrPersistence},
		{"external", External("reminders", cause), ErrExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("expected %v to match %v", wrapped, tt.sentinel)
			}
			for _, other := range []error{ErrValidation, ErrNotFound, ErrPersistence, ErrExternalService} {
				if other != tt.sentinel && errors.Is(wrapped, other) {
					t.Errorf("did not expect %v to match %v", wrapped, other)
				}
			}
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := error(&PersistenceError{Op: "save tasks", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("expected persistence error to unwrap to its cause")
	}

	var pe *PersistenceError
	if !errors.As(fmt.Errorf("wrap: %w", err), &pe) {
		t.Fatal("expected errors.As to find PersistenceError")
	}
	if pe.Op != "save tasks" {
		t.Errorf("expected op 'save tasks', got %s", pe.Op)
	}
}

func TestMessages(t *testing.T) {
	if got := Validation("title", "is required").Error(); got != "title: is required" {
		t.Errorf("unexpected message %q", got)
	}
	if got := Validation("", "bad input").Error(); got != "bad input" {
		t.Errorf("unexpected message %q", got)
	}
	if got := NotFound("task", "42").Error(); got != "task not found: 42" {
		t.Errorf("unexpected message %q", got)
	}
}
