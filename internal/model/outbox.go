package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox event statuses
const (
	OutboxStatusPending   = "pending"
	OutboxStatusProcessed = "processed"
	OutboxStatusFailed    = "failed"
)

// NewOutboxEvent builds a pending outbox row. Marshal failures degrade to
// an empty payload rather than blocking the mutation.
func NewOutboxEvent(eventType string, payload interface{}) *OutboxEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}

// OutboxEvent is written in the same transaction as the mutation it
// describes and published to the broker by the worker.
type OutboxEvent struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	EventType   string          `json:"event_type" db:"event_type"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	Status      string          `json:"status" db:"status"`
	Retries     int             `json:"retries" db:"retries"`
	LastError   *string         `json:"last_error" db:"last_error"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}
