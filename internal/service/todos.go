package service

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"tasklist/internal/apperror"
	"tasklist/internal/models"
	"tasklist/internal/repository"
	"tasklist/pkg/logger"
)

// TodosParams groups the dependencies of Todos. Cache and Events may be nil.
type TodosParams struct {
	Store        repository.Store
	Cache        TodoCache
	Events       EventPublisher
	StoreTimeout time.Duration
}

// Todos creates and lists todos scoped to the authenticated user.
type Todos struct {
	store   repository.Store
	cache   TodoCache
	events  EventPublisher
	timeout time.Duration
	loads   singleflight.Group
	// generations counts creates per user in this process; loads are shared only
	// within one generation.
	generations sync.Map // user id -> *atomic.Uint64
}

func NewTodos(p TodosParams) *Todos {
	return &Todos{
		store:   p.Store,
		cache:   p.Cache,
		events:  p.Events,
		timeout: p.StoreTimeout,
	}
}

// CreateTodoInput is the caller-supplied part of a todo.
type CreateTodoInput struct {
	Title       string
	Description string
	Completed   bool
}

// CreateTodo persists a todo owned by userID. The owner always comes from the
// authenticated identity, never from the input.
func (s *Todos) CreateTodo(ctx context.Context, userID string, in CreateTodoInput) (*models.Todo, error) {
	if userID == "" {
		return nil, apperror.ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, apperror.ErrMissingTodoFields
	}

	now := time.Now().UTC()
	todo := &models.Todo{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	storeCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.CreateTodo(storeCtx, todo); err != nil {
		return nil, errors.Wrap(err, "create todo")
	}

	s.generation(userID).Add(1)
	if s.cache != nil {
		s.cache.InvalidateTodos(ctx, userID)
	}
	publish(ctx, s.events, models.Event{Type: models.EventTodoCreated, UserID: userID, TodoID: todo.ID})
	return todo, nil
}

// ListTodos returns every todo owned by userID, oldest first. Never nil.
func (s *Todos) ListTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	if userID == "" {
		return nil, apperror.ErrUnauthorized
	}

	if s.cache != nil {
		if b, ok := s.cache.GetTodos(ctx, userID); ok {
			var todos []models.Todo
			if err := json.Unmarshal(b, &todos); err == nil && todos != nil {
				return todos, nil
			}
			logger.Debug(ctx, "Discarding unreadable cached todos", "user_id", userID)
		}
	}

	// Concurrent misses for the same user share one store read, detached from the
	// first caller's cancellation.
	key := userID + "@" + strconv.FormatUint(s.generation(userID).Load(), 10)
	v, err, _ := s.loads.Do(key, func() (any, error) {
		loadCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.Refresh(loadCtx, userID)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Todo)), nil
}

// Refresh reads userID's todos from the store and rewrites the cache entry, unless the
// list was invalidated while the store was being read.
func (s *Todos) Refresh(ctx context.Context, userID string) ([]models.Todo, error) {
	var (
		version   int64
		versioned bool
	)
	if s.cache != nil {
		version, versioned = s.cache.TodosVersion(ctx, userID)
	}
	todos, err := s.store.ListTodosByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list todos")
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	if versioned {
		if b, err := json.Marshal(todos); err == nil {
			s.cache.SetTodos(ctx, userID, version, b)
		}
	}
	return todos, nil
}

func (s *Todos) generation(userID string) *atomic.Uint64 {
	if g, ok := s.generations.Load(userID); ok {
		return g.(*atomic.Uint64)
	}
	g, _ := s.generations.LoadOrStore(userID, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}
