package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/repository"
)

// MaxTitleLength bounds task titles; descriptions are unbounded.
const MaxTitleLength = 200

// TaskService enforces task ownership and validation.
//
// Every method takes the authenticated user's ID from the caller (the
// handler reads it from the request context). An owner field in a request
// body is never trusted.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService backed by repo.
func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

// List returns every task owned by userID in store order.
func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// Create validates in and stores a new task owned by userID.
//
// Title is trimmed and required. Priority defaults to medium; an unknown
// value is rejected rather than coerced. Tags default to an empty list.
func (s *TaskService) Create(ctx context.Context, userID string, in model.TaskInput) (*model.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = model.DefaultPriority
	}
	if !priority.Valid() {
		return nil, invalidPriority()
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	task := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Tags:        tags,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("userID", userID),
	)

	return task, nil
}

// GetByID returns a task the caller owns.
//
// A task that does not exist is NotFound. A task that exists but belongs to
// someone else is Forbidden. Existence is checked first.
func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("task", taskID)
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}

	if task.UserID != userID {
		s.logger.Warn("task access denied",
			slog.String("id", taskID),
			slog.String("userID", userID),
		)
		return nil, apperror.Forbidden("Not authorized")
	}

	return task, nil
}

// Update applies the present fields of patch to a task the caller owns.
//
// Present-but-falsy values win: {"completed": false} clears completion and
// {"description": ""} clears the description. An empty title is rejected.
// A patch with no fields still refreshes UpdatedAt.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, invalidPriority()
	}

	patch.Apply(task)

	if err := s.repo.Update(ctx, task); err != nil {
		s.logger.Error("failed to update task",
			slog.String("id", taskID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", slog.String("id", taskID))
	return task, nil
}

// Delete permanently removes a task the caller owns.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.GetByID(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete task",
			slog.String("id", taskID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted", slog.String("id", taskID))
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return title, nil
}

func invalidPriority() error {
	return apperror.ValidationFailed("priority", "priority must be one of low, medium, high")
}
