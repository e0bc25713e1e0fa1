// Package repository holds the persistence capability the service layer depends on,
// with a Postgres implementation and an in-memory one for tests and local runs.
package repository

import (
	"context"

	"tasklist/internal/models"

	"github.com/pkg/errors"
)

var (
	// ErrUserNotFound is returned when no user has the requested email.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the store's unique constraint on email rejects an insert.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store is everything the account and todo use cases need from persistence.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	CreateTodo(ctx context.Context, todo *models.Todo) error
	ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error)
}
