// Package tasks owns the canonical task collection. Every mutation is
// validated first, applied in memory, and then followed by a write of the
// whole collection through the Persister.
package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

// Persister loads and saves the entire collection as one unit.
type Persister interface {
	LoadTasks(ctx context.Context) ([]models.Task, error)
	SaveTasks(ctx context.Context, tasks []models.Task) error
}

type Store struct {
	mu      sync.Mutex
	tasks   []models.Task
	persist Persister
	logger  *log.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithIDs overrides the UUID generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(persist Persister, opts ...Option) *Store {
	s := &Store{
		persist: persist,
		logger:  log.Default(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collection with the persisted one. A missing
// record loads as an empty collection.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.persist.LoadTasks(ctx)
	if err != nil {
		return &apperr.PersistenceError{Op: "load tasks", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = loaded
	if s.tasks == nil {
		s.tasks = []models.Task{}
	}
	s.logger.Debug("Loaded tasks", "count", len(s.tasks))
	return nil
}

// Flush writes the current collection. It is called after every mutation and
// can be called again to retry after a PersistenceError.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Store) flushLocked(ctx context.Context) error {
	if err := s.persist.SaveTasks(ctx, cloneAll(s.tasks)); err != nil {
		s.logger.Warn("Failed to persist tasks, keeping in-memory state", "err", err)
		return &apperr.PersistenceError{Op: "save tasks", Err: err}
	}
	return nil
}

// All returns a copy of the canonical collection in canonical order.
func (s *Store) All() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.tasks)
}

func (s *Store) Get(id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, apperr.NotFound("task", id)
	}
	return s.tasks[i], nil
}

// Now is the store's clock, shared with callers that derive views.
func (s *Store) Now() time.Time {
	return s.now()
}

// Create adds a task. Only the title is required; everything else falls back
// to its default. On a PersistenceError the returned task is still part of
// the collection.
func (s *Store) Create(ctx context.Context, in models.TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, apperr.Validation("title", "is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	category := in.Category
	if category == "" {
		category = models.CategoryPersonal
	}
	if err := validate(in.DueDate, priority, category); err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		CreatedDate: s.now(),
		DueDate:     strings.TrimSpace(in.DueDate),
		Priority:    priority,
		Category:    category,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	s.logger.Info("Created task", "id", t.ID, "title", t.Title)
	return t, s.flushLocked(ctx)
}

// Update replaces the fields set in patch. An unknown id is a no-op reported
// as NotFoundError.
func (s *Store) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, apperr.NotFound("task", id)
	}

	next := s.tasks[i]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, apperr.Validation("title", "is required")
		}
		next.Title = title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.DueDate != nil {
		next.DueDate = strings.TrimSpace(*patch.DueDate)
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if err := validatePatch(patch, next); err != nil {
		return models.Task{}, err
	}
	if patch.Completed != nil && *patch.Completed != next.Completed {
		next = s.flip(next)
	}

	s.tasks[i] = next
	s.logger.Info("Updated task", "id", id)
	return next, s.flushLocked(ctx)
}

// Delete removes a task. An unknown id is a no-op reported as NotFoundError.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return apperr.NotFound("task", id)
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.logger.Info("Deleted task", "id", id)
	return s.flushLocked(ctx)
}

// ToggleComplete flips completion. Completing stamps completedDate with the
// current time; reopening clears it.
func (s *Store) ToggleComplete(ctx context.Context, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, apperr.NotFound("task", id)
	}
	s.tasks[i] = s.flip(s.tasks[i])
	s.logger.Info("Toggled task", "id", id, "completed", s.tasks[i].Completed)
	return s.tasks[i], s.flushLocked(ctx)
}

// Reorder moves view[from] to position to and folds the view back into the
// canonical order. view is normally a Filter result over All().
func (s *Store) Reorder(ctx context.Context, view []models.Task, from, to int) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make([]models.Task, 0, len(view))
	for _, t := range view {
		i := s.indexLocked(t.ID)
		if i < 0 {
			return nil, apperr.NotFound("task", t.ID)
		}
		current = append(current, s.tasks[i])
	}
	next, err := views.Reorder(s.tasks, current, from, to)
	if errors.Is(err, views.ErrInvalidMove) {
		return nil, apperr.Validation("index", "move is out of range")
	}
	s.tasks = next
	s.logger.Debug("Reordered tasks", "from", from, "to", to)
	return cloneAll(s.tasks), s.flushLocked(ctx)
}

func (s *Store) flip(t models.Task) models.Task {
	t.Completed = !t.Completed
	if t.Completed {
		now := s.now()
		t.CompletedDate = &now
	} else {
		t.CompletedDate = nil
	}
	return t
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func validate(dueDate string, priority models.Priority, category models.Category) error {
	if due := strings.TrimSpace(dueDate); due != "" && !calendar.ValidDate(due) {
		return apperr.Validation("dueDate", "must be a YYYY-MM-DD date")
	}
	if !priority.Valid() {
		return apperr.Validation("priority", "must be low, medium or high")
	}
	if !category.Known() {
		return apperr.Validation("category", "unknown category "+string(category))
	}
	return nil
}

// validatePatch checks only the fields the patch touches, so a stored task
// with a tolerated legacy value can still be edited elsewhere.
func validatePatch(patch models.TaskPatch, next models.Task) error {
	if patch.DueDate != nil && next.DueDate != "" && !calendar.ValidDate(next.DueDate) {
		return apperr.Validation("dueDate", "must be a YYYY-MM-DD date")
	}
	if patch.Priority != nil && !next.Priority.Valid() {
		return apperr.Validation("priority", "must be low, medium or high")
	}
	if patch.Category != nil && !next.Category.Known() {
		return apperr.Validation("category", "unknown category "+string(next.Category))
	}
	return nil
}

func cloneAll(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
