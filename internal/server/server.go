package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ldi/daybook/embed/web"
	"github.com/ldi/daybook/internal/apperr"
	"github.com/ldi/daybook/internal/auth"
	"github.com/ldi/daybook/internal/avatar"
	"github.com/ldi/daybook/internal/reminders"
	"github.com/ldi/daybook/internal/stats"
	"github.com/ldi/daybook/internal/tasks"
	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

type Server struct {
	store     *tasks.Store
	reminders *reminders.Service
	auth      auth.Provider
	avatars   avatar.Store
	logger    *log.Logger
	server    *http.Server
}

type Deps struct {
	Store     *tasks.Store
	Reminders *reminders.Service
	Auth      auth.Provider
	Avatars   avatar.Store
	Logger    *log.Logger
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:     d.Store,
		reminders: d.Reminders,
		auth:      d.Auth,
		avatars:   d.Avatars,
		logger:    logger,
	}
}

// Handler returns the routed API plus the embedded page.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/grouped", s.handleGroupedTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)
	mux.HandleFunc("POST /api/tasks/{id}/reminders", s.handleSetReminder)
	mux.HandleFunc("POST /api/reorder", s.handleReorder)
	mux.HandleFunc("GET /api/counts", s.handleCounts)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("PATCH /api/me", s.handleUpdateMe)
	mux.HandleFunc("POST /api/avatar", s.handleAvatar)
	mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	mux.HandleFunc("PATCH /api/reminders/{id}", s.handleUpdateReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.handleCancelReminder)

	if dir, ok := s.avatars.(*avatar.DirStore); ok {
		mux.Handle("GET /avatars/", http.StripPrefix("/avatars/", http.FileServer(http.Dir(dir.Dir()))))
	}

	mux.Handle("/", http.FileServer(http.FS(web.Assets)))

	return s.logRequests(mux)
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Web server listening", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

type taskList struct {
	View         string        `json:"view"`
	Title        string        `json:"title"`
	EmptyMessage string        `json:"emptyMessage"`
	Tasks        []models.Task `json:"tasks"`
}

// viewFromQuery reads ?view=, falling back to def when absent.
func viewFromQuery(r *http.Request, def views.View) (views.View, error) {
	raw := r.URL.Query().Get("view")
	if raw == "" {
		return def, nil
	}
	v, err := views.ParseView(raw)
	if err != nil {
		return views.View{}, apperr.Validation("view", err.Error())
	}
	return v, nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if r.URL.Query().Get("view") == "" {
		s.respond(w, http.StatusOK, views.Search(s.store.All(), q), nil)
		return
	}
	v, err := viewFromQuery(r, views.Today)
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	s.respond(w, http.StatusOK, taskList{
		View:         v.String(),
		Title:        v.Title(),
		EmptyMessage: v.EmptyMessage(),
		Tasks:        views.Filter(s.store.All(), v, s.store.Now(), q),
	}, nil)
}

type dateGroup struct {
	Date  string        `json:"date"`
	Label string        `json:"label"`
	Tasks []models.Task `json:"tasks"`
}

func (s *Server) handleGroupedTasks(w http.ResponseWriter, r *http.Request) {
	v, err := viewFromQuery(r, views.Upcoming)
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	now := s.store.Now()
	filtered := views.Filter(s.store.All(), v, now, r.URL.Query().Get("q"))

	groups := []dateGroup{}
	for _, g := range views.GroupByDueDate(filtered, now.Location()) {
		groups = append(groups, dateGroup{Date: g.Date, Label: views.DayLabel(g.Date, now, nil), Tasks: g.Tasks})
	}
	s.respond(w, http.StatusOK, groups, nil)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if err := decode(r, &in); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	task, err := s.store.Create(r.Context(), in)
	s.respondMutation(w, http.StatusCreated, task, err)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(r.PathValue("id"))
	s.respond(w, http.StatusOK, task, err)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if err := decode(r, &patch); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	task, err := s.store.Update(r.Context(), r.PathValue("id"), patch)
	s.respondMutation(w, http.StatusOK, task, err)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.ToggleComplete(r.Context(), r.PathValue("id"))
	s.respondMutation(w, http.StatusOK, task, err)
}

type reorderRequest struct {
	View  string `json:"view"`
	Query string `json:"q"`
	From  int    `json:"from"`
	To    int    `json:"to"`
}

// handleReorder moves an item within a view. The view is recomputed here so
// clients only send indexes.
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	v, err := views.ParseView(req.View)
	if err != nil {
		s.respond(w, 0, nil, apperr.Validation("view", err.Error()))
		return
	}
	now := s.store.Now()
	current := views.Filter(s.store.All(), v, now, req.Query)
	all, err := s.store.Reorder(r.Context(), current, req.From, req.To)
	if all == nil && err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	s.respondMutation(w, http.StatusOK, views.Filter(all, v, now, req.Query), err)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, views.Count(s.store.All(), s.store.Now()), nil)
}

type statsResponse struct {
	stats.Summary
	Greeting string     `json:"greeting"`
	Band     stats.Band `json:"band"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	now := s.store.Now()
	summary := stats.Summarize(s.store.All(), now)
	s.respond(w, http.StatusOK, statsResponse{
		Summary:  summary,
		Greeting: stats.Greeting(now.Hour()),
		Band:     stats.BandFor(summary.OverallProgress),
	}, nil)
}

type profile struct {
	models.User
	Initials string `json:"initials"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.CurrentUser(r.Context())
	if err != nil {
		s.respond(w, 0, nil, apperr.External("auth", err))
		return
	}
	s.respond(w, http.StatusOK, profile{User: *user, Initials: stats.Initials(user.Name)}, nil)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := decode(r, &patch); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	user, err := s.auth.UpdateProfile(r.Context(), patch)
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	s.respond(w, http.StatusOK, profile{User: *user, Initials: stats.Initials(user.Name)}, nil)
}

// handleAvatar takes the raw image as the request body.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, avatar.MaxSize+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respond(w, 0, nil, apperr.Validation("avatar", "file size must be less than 5MB"))
			return
		}
		s.respond(w, 0, nil, apperr.Validation("avatar", err.Error()))
		return
	}
	ref, err := s.avatars.Put(r.Context(), r.Header.Get("Content-Type"), data)
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	user, err := s.auth.UpdateProfile(r.Context(), models.ProfilePatch{Avatar: &ref})
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	s.respond(w, http.StatusOK, profile{User: *user, Initials: stats.Initials(user.Name)}, nil)
}

type reminderRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

func (s *Server) handleSetReminder(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	var req reminderRequest
	if err := decode(r, &req); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	var email string
	if user, err := s.auth.CurrentUser(r.Context()); err == nil {
		email = user.Email
	}
	reminder, err := s.reminders.Set(r.Context(), task, req.Date, req.Time, req.Message, email)
	s.respond(w, http.StatusCreated, reminder, err)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	list, err := s.reminders.List(r.Context())
	s.respond(w, http.StatusOK, list, err)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var patch models.ReminderPatch
	if err := decode(r, &patch); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	reminder, err := s.reminders.Update(r.Context(), r.PathValue("id"), patch)
	s.respond(w, http.StatusOK, reminder, err)
}

func (s *Server) handleCancelReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.reminders.Cancel(r.Context(), r.PathValue("id")); err != nil {
		s.respond(w, 0, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "request body is empty")
		}
		return apperr.Validation("body", strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	// Data carries the already-applied result when only persisting failed.
	Data any `json:"data,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrExternalService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) respond(w http.ResponseWriter, status int, data any, err error) {
	if err != nil {
		s.respondError(w, err, nil)
		return
	}
	writeJSON(w, status, data)
}

// respondMutation reports a store mutation. A persistence failure still
// carries the mutated value since the change stands in memory.
func (s *Server) respondMutation(w http.ResponseWriter, status int, data any, err error) {
	if err != nil && errors.Is(err, apperr.ErrPersistence) {
		s.respondError(w, err, data)
		return
	}
	s.respond(w, status, data, err)
}

func (s *Server) respondError(w http.ResponseWriter, err error, data any) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("Request failed", "status", status, "err", err)
	}
	body := errorResponse{Error: err.Error(), Data: data}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
