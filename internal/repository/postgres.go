package repository

import (
	"context"
	"database/sql"
	"time"

	"tasklist/internal/models"
	"tasklist/pkg/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolation = pq.ErrorCode("23505")

// Postgres implements Store on a shared *sql.DB pool.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open pool. The caller owns the pool's lifetime.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindUserByEmail matches email exactly (case-sensitive).
func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, credential, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Credential, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Error(ctx, "Repository FindUserByEmail failed", "error", err)
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// CreateUser inserts a user, assigning ID and timestamps. A duplicate email yields ErrDuplicateEmail.
func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, credential, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Credential, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.WithStack(ErrDuplicateEmail)
		}
		logger.Error(ctx, "Repository CreateUser failed", "error", err)
		return errors.Wrap(err, "create user")
	}
	return nil
}

// CreateTodo inserts a new todo.
func (p *Postgres) CreateTodo(ctx context.Context, todo *models.Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, description, completed, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		todo.ID, todo.Title, todo.Description, todo.Completed, todo.UserID, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		logger.Error(ctx, "Repository CreateTodo failed", "error", err)
		return errors.Wrap(err, "create todo")
	}
	return nil
}

// ListTodosByUser returns the user's todos oldest first.
func (p *Postgres) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, description, completed, user_id, created_at, updated_at
		 FROM todos WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		logger.Error(ctx, "Repository ListTodosByUser failed", "error", err)
		return nil, errors.Wrap(err, "list todos")
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			logger.Error(ctx, "Repository scan todo failed", "error", err)
			return nil, errors.Wrap(err, "scan todo")
		}
		todos = append(todos, t)
	}
	return todos, errors.Wrap(rows.Err(), "iterate todos")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
