// Package session is the client's view of who is signed in.
//
// A Session moves between three states:
//
//	Anonymous ──Login/Register/Restore──▶ Authenticating ──ok──▶ Authenticated
//	    ▲                                        │                    │
//	    └────────────────failure─────────────────┘◀──Logout / 401─────┘
//
// Entering Authenticated fetches the task list once into the TaskCache.
// Task actions then update the cache only with what the server returned.
// Every action reports a Notification through the injected Notifier.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/notifydo/internal/client/api"
	"github.com/sakif/notifydo/internal/client/cache"
	"github.com/sakif/notifydo/internal/model"
)

// ErrNotAuthenticated is returned by task actions while signed out.
var ErrNotAuthenticated = errors.New("not signed in")

// State is the session lifecycle position.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// API is the part of *api.Client a Session drives.
type API interface {
	Register(ctx context.Context, name, email, password string) (*model.Session, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Profile(ctx context.Context) (*model.Profile, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	ToggleTask(ctx context.Context, id string, completed bool) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) (string, error)
}

// Session holds the signed-in user and owns the task cache.
//
// The mutex guards state and user only. It is never held across a network
// call, so a response handler can expire the session mid-request.
type Session struct {
	api      API
	tokens   api.TokenStore
	tasks    *cache.TaskCache
	notifier Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	user  *model.Profile
}

// New creates an anonymous Session. A nil notifier discards notifications.
func New(client API, tokens api.TokenStore, tasks *cache.TaskCache, notifier Notifier, logger *slog.Logger) *Session {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Session{
		api:      client,
		tokens:   tokens,
		tasks:    tasks,
		notifier: notifier,
		logger:   logger,
		state:    Anonymous,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, or nil when anonymous.
func (s *Session) User() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Tasks returns the cached task list.
func (s *Session) Tasks() []model.Task {
	return s.tasks.All()
}

// TasksLoaded reports whether the cache holds a server list.
func (s *Session) TasksLoaded() bool {
	return s.tasks.Loaded()
}

// Restore resumes a session from a stored token. With no token it stays
// anonymous and returns nil. If the server rejects the token, or cannot be
// reached, the token is cleared and the error returned.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		s.setState(Anonymous, nil)
		return nil
	}

	s.setState(Authenticating, nil)
	profile, err := s.api.Profile(ctx)
	if err != nil {
		s.logger.Debug("session restore failed", slog.String("error", err.Error()))
		s.signOut()
		return err
	}

	return s.enter(ctx, profile)
}

// AdoptToken stores a token obtained elsewhere (GitHub sign-in) and
// restores the session from it.
func (s *Session) AdoptToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := s.tokens.SetToken(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.Restore(ctx); err != nil {
		s.fail("Sign-in failed", err)
		return err
	}
	s.notify(LevelSuccess, "Signed in", "Welcome, "+s.User().Name)
	return nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.setState(Authenticating, nil)
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.setState(Anonymous, nil)
		s.fail("Login failed", err)
		return err
	}

	if err := s.enter(ctx, &result.Profile); err != nil {
		return err
	}
	s.notify(LevelSuccess, "Welcome back", "Signed in as "+result.Email)
	return nil
}

// Register creates an account and signs in to it.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	s.setState(Authenticating, nil)
	result, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		s.setState(Anonymous, nil)
		s.fail("Registration failed", err)
		return err
	}

	if err := s.enter(ctx, &result.Profile); err != nil {
		return err
	}
	s.notify(LevelSuccess, "Account created", "Signed in as "+result.Email)
	return nil
}

// Logout forgets the token, empties the cache and goes anonymous.
func (s *Session) Logout() error {
	err := s.tokens.ClearToken()
	s.tasks.Clear()
	s.setState(Anonymous, nil)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.notify(LevelInfo, "Signed out", "")
	return nil
}

// Expire handles a server 401: the session ends as if the user logged out.
// Calling it while already anonymous does nothing.
func (s *Session) Expire() {
	if s.State() == Anonymous {
		return
	}
	s.signOut()
	s.notify(LevelError, "Session expired", "Please sign in again")
}

// Refresh replaces the cache with the server's task list.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	tasks, err := s.api.ListTasks(ctx)
	if err != nil {
		s.fail("Could not load tasks", err)
		return err
	}
	s.tasks.Replace(tasks)
	return nil
}

// CreateTask creates a task and appends the server's copy to the cache.
func (s *Session) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	task, err := s.api.CreateTask(ctx, in)
	if err != nil {
		s.fail("Could not create task", err)
		return nil, err
	}
	s.tasks.Put(*task)
	s.notify(LevelSuccess, "Task created", task.Title)
	return task, nil
}

// UpdateTask applies patch and replaces the cached task with the result.
func (s *Session) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	task, err := s.api.UpdateTask(ctx, id, patch)
	if err != nil {
		s.fail("Could not update task", err)
		return nil, err
	}
	s.tasks.Put(*task)
	s.notify(LevelSuccess, "Task updated", task.Title)
	return task, nil
}

// SetCompleted marks a task done or not done.
func (s *Session) SetCompleted(ctx context.Context, id string, completed bool) (*model.Task, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	task, err := s.api.ToggleTask(ctx, id, completed)
	if err != nil {
		s.fail("Could not update task", err)
		return nil, err
	}
	s.tasks.Put(*task)

	title := "Task completed"
	if !task.Completed {
		title = "Task reopened"
	}
	s.notify(LevelSuccess, title, task.Title)
	return task, nil
}

// ToggleTask flips the completed flag of a cached task.
func (s *Session) ToggleTask(ctx context.Context, id string) (*model.Task, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	current, ok := s.tasks.Get(id)
	if !ok {
		err := fmt.Errorf("task %s is not loaded", id)
		s.fail("Could not update task", err)
		return nil, err
	}
	return s.SetCompleted(ctx, id, !current.Completed)
}

// DeleteTask removes a task on the server, then from the cache.
func (s *Session) DeleteTask(ctx context.Context, id string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	msg, err := s.api.DeleteTask(ctx, id)
	if err != nil {
		s.fail("Could not delete task", err)
		return err
	}
	s.tasks.Remove(id)
	s.notify(LevelSuccess, msg, "")
	return nil
}

// enter completes sign-in: record the user, then fill the cache.
//
// A failed first fetch is reported but does not undo the sign-in; the
// cache stays unloaded until the next Refresh. Only a 401, which has
// already expired the session, is returned as an error.
func (s *Session) enter(ctx context.Context, profile *model.Profile) error {
	s.setState(Authenticated, profile)
	s.logger.Debug("session authenticated", slog.String("userID", profile.ID))

	if err := s.Refresh(ctx); err != nil {
		if s.State() != Authenticated {
			return err
		}
		s.logger.Debug("initial task fetch failed", slog.String("error", err.Error()))
	}
	return nil
}

func (s *Session) signOut() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Warn("failed to clear token", slog.String("error", err.Error()))
	}
	s.tasks.Clear()
	s.setState(Anonymous, nil)
}

func (s *Session) requireAuth() error {
	if s.State() != Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) setState(state State, user *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
}

// fail reports err. A 401 also ends the session; the cache is otherwise
// left as it was.
func (s *Session) fail(title string, err error) {
	if api.IsUnauthorized(err) && s.State() == Authenticated {
		s.Expire()
		return
	}
	s.notify(LevelError, title, errorMessage(err))
}

func (s *Session) notify(level Level, title, message string) {
	s.notifier.Notify(Notification{Level: level, Title: title, Message: message})
}

func errorMessage(err error) string {
	var apiErr api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
