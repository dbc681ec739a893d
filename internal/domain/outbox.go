package domain

import (
	"encoding/json"
	"time"
)

// EventType names the kinds of domain events the outbox carries.
type EventType string

const (
	EventTypeHoldCreated    EventType = "hold.created"
	EventTypeHoldExpired    EventType = "hold.expired"
	EventTypeOrderConfirmed EventType = "order.confirmed"
	EventTypeOrderCancelled EventType = "order.cancelled"
)

// OutboxRecord is inserted in the same transaction as the business change
// it describes and later drained by a polling publisher. Once Published
// is true the row is immutable.
type OutboxRecord struct {
	EventID     EventId
	EventType   EventType
	AggregateID string
	Payload     []byte
	Published   bool
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// ConsumedEvent marks an event_id as handled by one consumer, inserted in
// the same transaction as the handler's side effect.
type ConsumedEvent struct {
	EventID    EventId
	EventType  EventType
	ConsumedAt time.Time
}

// Envelope is the wire shape of an event published to the broker.
type Envelope struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	OccurredAt     time.Time       `json:"occurred_at"`
	AggregateID    string          `json:"aggregate_id"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}
