// Package repository declares the persistence contracts the services depend
// on. Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"

	"github.com/sakif/notifydo/internal/model"
)

// UserRepository is the credential store.
//
// Create assigns ID and timestamps and returns apperror.ErrConflict when the
// email is already taken (case-insensitive). Lookups return
// apperror.ErrNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskRepository is the task store. It knows nothing about ownership rules;
// the service layer enforces them.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error
}

// Store bundles both repositories behind one connection so the server can
// pick a backend at startup and close it on shutdown.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository
	Ping(ctx context.Context) error
	Close() error
}
