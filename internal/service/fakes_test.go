package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// Each stores copies so a test can't mutate state behind the service's back.
// Set one of the *Err fields to simulate a store failure.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int

	createErr error
	getErr    error

	// beforeCreate runs at the start of Create, letting a test slip in a
	// competing write.
	beforeCreate func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("user", user.Email)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

type fakeTaskRepo struct {
	tasks  map[string]*model.Task
	order  []string
	nextID int

	createErr error
	updateErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*model.Task)}
}

func (f *fakeTaskRepo) Create(_ context.Context, task *model.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	task.ID = fmt.Sprintf("task-%d", f.nextID)
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := *task
	f.tasks[task.ID] = &stored
	f.order = append(f.order, task.ID)
	return nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	result := *t
	return &result, nil
}

func (f *fakeTaskRepo) ListByUser(_ context.Context, userID string) ([]model.Task, error) {
	result := []model.Task{}
	for _, id := range f.order {
		if t, ok := f.tasks[id]; ok && t.UserID == userID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, task *model.Task) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.tasks[task.ID]; !ok {
		return apperror.NotFound("task", task.ID)
	}
	task.UpdatedAt = time.Now()
	stored := *task
	f.tasks[task.ID] = &stored
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return apperror.NotFound("task", id)
	}
	delete(f.tasks, id)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
