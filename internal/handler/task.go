package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/auth"
	"github.com/sakif/notifydo/internal/model"
)

// Tasks is the part of service.TaskService the task routes need.
type Tasks interface {
	List(ctx context.Context, userID string) ([]model.Task, error)
	Create(ctx context.Context, userID string, in model.TaskInput) (*model.Task, error)
	GetByID(ctx context.Context, userID, taskID string) (*model.Task, error)
	Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskHandler serves /api/tasks. Every route sits behind auth.RequireAuth,
// and the owner is always the authenticated user, never a body field.
type TaskHandler struct {
	tasks  Tasks
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks Tasks, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// HandleList returns the caller's tasks.
//
// HTTP: GET /api/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate adds a task.
//
// HTTP: POST /api/tasks
// REQUEST BODY: {"title": "Buy milk", "description"?, "dueDate"?, "priority"?, "tags"?}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in model.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleGet returns one task.
//
// HTTP: GET /api/tasks/{id}
// 404 if no such task exists, 401 if it belongs to someone else.
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate merges the fields present in the body into a task.
//
// HTTP: PUT /api/tasks/{id}
// REQUEST BODY: any subset of title, description, completed, dueDate,
// priority, tags. "dueDate": null clears the due date.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch model.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes a task.
//
// HTTP: DELETE /api/tasks/{id}
// RESPONSE: 200 {"message": "Task removed"}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Task removed"})
}

// requireUser reads the identity RequireAuth attached. Missing identity
// means the route was mounted without the middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Not authorized, no token"))
		return "", false
	}
	return userID, true
}
