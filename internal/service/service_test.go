package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tasklist/internal/auth"
	"tasklist/internal/models"
	"tasklist/internal/repository"
)

// memCache is an in-process TodoCache that counts hits.
type memCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	versions map[string]int64
	hits     int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), versions: make(map[string]int64)}
}

func (c *memCache) GetTodos(_ context.Context, userID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[userID]
	if ok {
		c.hits++
	}
	return b, ok
}

func (c *memCache) TodosVersion(_ context.Context, userID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID], true
}

func (c *memCache) SetTodos(_ context.Context, userID string, version int64, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userID] != version {
		return false
	}
	c.entries[userID] = payload
	return true
}

func (c *memCache) InvalidateTodos(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
	delete(c.entries, userID)
}

func (c *memCache) has(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[userID]
	return ok
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// mockStore lets tests inject store failures.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) CreateTodo(ctx context.Context, todo *models.Todo) error {
	return m.Called(ctx, todo).Error(0)
}

func (m *mockStore) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]models.Todo), args.Error(1)
	}
	return nil, args.Error(1)
}

// pausingStore holds its first ListTodosByUser call after the read, until release is closed.
type pausingStore struct {
	*repository.Memory
	once    sync.Once
	paused  chan struct{}
	release chan struct{}
}

func newPausingStore(mem *repository.Memory) *pausingStore {
	return &pausingStore{Memory: mem, paused: make(chan struct{}), release: make(chan struct{})}
}

func (s *pausingStore) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	todos, err := s.Memory.ListTodosByUser(ctx, userID)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.paused)
		<-s.release
	}
	return todos, err
}

type failingIssuer struct{}

func (failingIssuer) Issue(string) (string, error) { return "", errors.New("signing failed") }

func newTestHasher() *auth.ScryptHasher {
	return auth.NewScryptHasher(auth.ScryptParams{N: 1 << 10, R: 8, P: 1}, 4)
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Hour, "")
	require.NoError(t, err)
	return tokens
}
