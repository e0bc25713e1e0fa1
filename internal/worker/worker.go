package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"tasklist/internal/models"
	"tasklist/pkg/logger"
)

// MessageReader is the subset of *kafka.Reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Refresher reloads a user's todo list into the cache.
type Refresher interface {
	Refresh(ctx context.Context, userID string) ([]models.Todo, error)
}

// Worker consumes domain events and re-warms the list cache after each todo.created.
// One consumer per process; scale by running more replicas (consumer group shares partitions).
type Worker struct {
	reader    MessageReader
	refresher Refresher
	timeout   time.Duration
	processed atomic.Int64
}

// NewKafkaReader returns a consumer-group reader for topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func New(reader MessageReader, refresher Refresher, timeout time.Duration) *Worker {
	return &Worker{reader: reader, refresher: refresher, timeout: timeout}
}

// Run blocks until ctx is cancelled. The reader is closed on return.
func (w *Worker) Run(ctx context.Context) error {
	defer w.reader.Close()
	logger.Info(ctx, "Event consumer started")
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Event consumer stopped", "processed", w.processed.Load())
				return nil
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := w.handleMessage(ctx, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
		}
		if err := w.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		w.processed.Add(1)
	}
}

func (w *Worker) handleMessage(ctx context.Context, payload []byte) error {
	var evt models.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return errors.Wrap(err, "decode event")
	}
	switch evt.Type {
	case models.EventTodoCreated:
		if evt.UserID == "" {
			return errors.New("todo.created event without user id")
		}
		refreshCtx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		if _, err := w.refresher.Refresh(refreshCtx, evt.UserID); err != nil {
			return errors.Wrap(err, "refresh todos")
		}
	case models.EventUserSignedUp:
		logger.Debug(ctx, "User signed up event", "user_id", evt.UserID)
	default:
		logger.Debug(ctx, "Ignoring unknown event", "type", evt.Type)
	}
	return nil
}
