// Package service implements the account and todo use cases on top of the store,
// the credential primitives and the optional cache and event publisher.
package service

import (
	"context"
	"time"

	"tasklist/internal/models"
	"tasklist/pkg/logger"
)

// TodoCache caches a user's serialized todo list. Implementations are best effort.
// Every InvalidateTodos advances the user's version; SetTodos only writes while the
// version still equals the one read by TodosVersion before the store was queried.
type TodoCache interface {
	GetTodos(ctx context.Context, userID string) ([]byte, bool)
	TodosVersion(ctx context.Context, userID string) (int64, bool)
	SetTodos(ctx context.Context, userID string, version int64, payload []byte) bool
	InvalidateTodos(ctx context.Context, userID string)
}

// EventPublisher delivers domain events after a successful write.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.Event) error
}

// TokenIssuer signs bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// publish never fails the caller: the write it describes is already committed.
func publish(ctx context.Context, p EventPublisher, evt models.Event) {
	if p == nil {
		return
	}
	evt.OccurredAt = time.Now().UTC()
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn(ctx, "Event publish failed", "error", err, "type", evt.Type)
	}
}
