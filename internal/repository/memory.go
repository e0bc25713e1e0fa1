package repository

import (
	"context"
	"sync"
	"time"

	"tasklist/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Memory is an in-process Store. It enforces the same email uniqueness and
// foreign-key rules as the Postgres schema.
type Memory struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
	userIDs map[string]struct{}
	todos   map[string][]models.Todo
}

func NewMemory() *Memory {
	return &Memory{
		byEmail: make(map[string]*models.User),
		userIDs: make(map[string]struct{}),
		todos:   make(map[string][]models.Todo),
	}
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return errors.WithStack(ErrDuplicateEmail)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.byEmail[user.Email] = &cp
	m.userIDs[user.ID] = struct{}{}
	return nil
}

func (m *Memory) CreateTodo(ctx context.Context, todo *models.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.userIDs[todo.UserID]; !ok {
		return errors.Errorf("todo owner %q does not exist", todo.UserID)
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	m.todos[todo.UserID] = append(m.todos[todo.UserID], *todo)
	return nil
}

func (m *Memory) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Todo, len(m.todos[userID]))
	copy(out, m.todos[userID])
	return out, nil
}
