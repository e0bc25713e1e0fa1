package models

import "time"

const (
	EventUserSignedUp = "user.signed_up"
	EventTodoCreated  = "todo.created"
)

// Event is the message payload published to Kafka after a successful write.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	TodoID     string    `json:"todo_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
