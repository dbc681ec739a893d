package domain

import (
	"github.com/google/uuid"
)

// HoldId identifies a hold across the inventory service and the
// orchestrator's mirror store. It is supplied by the caller (the
// orchestrator), never generated by the inventory service, so that both
// sides agree on the same identity without a round trip.
type HoldId struct{ value uuid.UUID }

// NewHoldId validates and wraps a caller-supplied hold identifier.
func NewHoldId(raw string) (HoldId, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return HoldId{}, NewError(ErrCodeInvalidArgument, "hold_id must be a UUID")
	}
	return HoldId{value: id}, nil
}

// NewHoldIdFromUUID wraps an already-parsed UUID, e.g. from a DB scan.
func NewHoldIdFromUUID(id uuid.UUID) HoldId { return HoldId{value: id} }

func (h HoldId) String() string  { return h.value.String() }
func (h HoldId) UUID() uuid.UUID { return h.value }
func (h HoldId) IsZero() bool    { return h.value == uuid.Nil }

// OrderId identifies an order. Generated by the order service at creation.
type OrderId struct{ value uuid.UUID }

func NewOrderId() OrderId                     { return OrderId{value: uuid.New()} }
func NewOrderIdFromUUID(id uuid.UUID) OrderId { return OrderId{value: id} }
func ParseOrderId(raw string) (OrderId, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return OrderId{}, NewError(ErrCodeInvalidArgument, "order_id must be a UUID")
	}
	return OrderId{value: id}, nil
}
func (o OrderId) String() string  { return o.value.String() }
func (o OrderId) UUID() uuid.UUID { return o.value }
func (o OrderId) IsZero() bool    { return o.value == uuid.Nil }

// IdempotencyKey collapses retries of the same logical create-order call
// into a single effect. The caller supplies it; we only validate shape.
type IdempotencyKey struct{ value string }

func NewIdempotencyKey(raw string) (IdempotencyKey, error) {
	if raw == "" {
		return IdempotencyKey{}, NewError(ErrCodeInvalidArgument, "idempotency key must not be empty")
	}
	if len(raw) > 255 {
		return IdempotencyKey{}, NewError(ErrCodeInvalidArgument, "idempotency key too long")
	}
	return IdempotencyKey{value: raw}, nil
}
func (k IdempotencyKey) String() string { return k.value }

// EventId identifies an outbox/consumed event. Generated by the writer.
type EventId struct{ value uuid.UUID }

func NewEventId() EventId                    { return EventId{value: uuid.New()} }
func NewEventIdFromUUID(id uuid.UUID) EventId { return EventId{value: id} }
func ParseEventId(raw string) (EventId, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return EventId{}, NewError(ErrCodeInvalidArgument, "event_id must be a UUID")
	}
	return EventId{value: id}, nil
}
func (e EventId) String() string  { return e.value.String() }
func (e EventId) UUID() uuid.UUID { return e.value }
