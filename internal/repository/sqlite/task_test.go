package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/model"
)

func TestTaskCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "ada@example.com")

	due := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	task := &model.Task{
		UserID:      owner.ID,
		Title:       "Buy milk",
		Description: "2 litres",
		DueDate:     &due,
		Priority:    model.PriorityLow,
		Tags:        []string{"errand", "home"},
	}
	if err := db.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == "" {
		t.Fatal("expected ID to be assigned")
	}

	got, err := db.Tasks().GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.UserID != owner.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, owner.ID)
	}
	if got.Title != "Buy milk" || got.Description != "2 litres" {
		t.Errorf("got title=%q description=%q", got.Title, got.Description)
	}
	if got.Completed {
		t.Error("expected new task to be incomplete")
	}
	if got.Priority != model.PriorityLow {
		t.Errorf("Priority = %q, want low", got.Priority)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, due)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "errand" || got.Tags[1] != "home" {
		t.Errorf("Tags = %v", got.Tags)
	}
}

func TestTaskCreate_NilTagsStoredAsEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "ada@example.com")

	task := &model.Task{UserID: owner.ID, Title: "t", Priority: model.PriorityMedium}
	if err := db.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := db.Tasks().GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", got.Tags)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", got.DueDate)
	}
}

func TestTaskGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Tasks().GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskListByUser_OnlyOwnedInInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ada := createTestUser(t, db, "ada@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	for _, title := range []string{"first", "second", "third"} {
		task := &model.Task{UserID: ada.ID, Title: title, Priority: model.PriorityMedium}
		if err := db.Tasks().Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := &model.Task{UserID: bob.ID, Title: "not yours", Priority: model.PriorityHigh}
	if err := db.Tasks().Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tasks, err := db.Tasks().ListByUser(ctx, ada.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, want := range []string{"first", "second", "third"} {
		if tasks[i].Title != want {
			t.Errorf("tasks[%d].Title = %q, want %q", i, tasks[i].Title, want)
		}
	}
}

func TestTaskListByUser_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	tasks, err := db.Tasks().ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if tasks == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestTaskUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "ada@example.com")

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &model.Task{UserID: owner.ID, Title: "old", DueDate: &due, Priority: model.PriorityLow, Tags: []string{"a"}}
	if err := db.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	createdAt := task.CreatedAt

	task.Title = "new"
	task.Completed = true
	task.DueDate = nil
	task.Priority = model.PriorityHigh
	task.Tags = []string{}
	if err := db.Tasks().Update(ctx, task); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := db.Tasks().GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "new" || !got.Completed || got.Priority != model.PriorityHigh {
		t.Errorf("got %+v", got)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate = %v, want cleared", got.DueDate)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", got.Tags)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt changed: %v → %v", createdAt, got.CreatedAt)
	}
	if got.UpdatedAt.Before(createdAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, createdAt)
	}
}

func TestTaskUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Tasks().Update(context.Background(), &model.Task{ID: "missing", Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "ada@example.com")

	task := &model.Task{UserID: owner.ID, Title: "gone soon", Priority: model.PriorityMedium}
	if err := db.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := db.Tasks().Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := db.Tasks().GetByID(ctx, task.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Tasks().Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
