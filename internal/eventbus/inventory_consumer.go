package eventbus

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/service"
)

// InventoryQueueName is the durable queue bound to the routing keys this
// handler consumes.
const InventoryQueueName = "inventory.hold-lifecycle"

// InventoryConsumerBindings declares the routing keys that feed
// NewInventoryConsumerHandler's handler, for DeclareTopology.
var InventoryConsumerBindings = QueueBinding{
	QueueName:   InventoryQueueName,
	RoutingKeys: []string{string(domain.EventTypeHoldExpired), string(domain.EventTypeOrderConfirmed)},
}

type holdExpiredEnvelopePayload struct {
	HoldID string `json:"hold_id"`
}

type orderConfirmedEnvelopePayload struct {
	OrderID string `json:"order_id"`
	HoldID  string `json:"hold_id"`
}

// NewInventoryConsumerHandler routes hold.expired to InventoryService.ReleaseTx
// and order.confirmed to InventoryService.CommitTx, per spec.md §4.6:
// the inventory side never initiates these transitions itself, it only
// reacts to events the order core and the expiry loop emit.
func NewInventoryConsumerHandler(inventory InventoryServiceTx) Handler {
	return func(ctx context.Context, tx *sql.Tx, env domain.Envelope) error {
		switch domain.EventType(env.EventType) {
		case domain.EventTypeHoldExpired:
			var payload holdExpiredEnvelopePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return domain.WrapError(domain.ErrCodeInvalidArgument, "decode hold.expired payload", err)
			}
			holdID, err := domain.NewHoldId(payload.HoldID)
			if err != nil {
				return domain.WrapError(domain.ErrCodeInvalidArgument, "parse hold_id", err)
			}
			return inventory.ReleaseTx(ctx, tx, holdID)

		case domain.EventTypeOrderConfirmed:
			var payload orderConfirmedEnvelopePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return domain.WrapError(domain.ErrCodeInvalidArgument, "decode order.confirmed payload", err)
			}
			holdID, err := domain.NewHoldId(payload.HoldID)
			if err != nil {
				return domain.WrapError(domain.ErrCodeInvalidArgument, "parse hold_id", err)
			}
			return inventory.CommitTx(ctx, tx, holdID)

		default:
			// Unknown routing key bound to this queue: ack and move on rather
			// than dead-lettering forever on a message this handler will
			// never know how to process.
			return nil
		}
	}
}

//go:generate mockgen -source=inventory_consumer.go -destination=mock_inventory_service_tx_test.go -package=eventbus

// InventoryServiceTx is the subset of InventoryService the consumer
// needs, expressed as an interface so tests can stub it without a
// database.
type InventoryServiceTx interface {
	ReleaseTx(ctx context.Context, tx *sql.Tx, holdID domain.HoldId) error
	CommitTx(ctx context.Context, tx *sql.Tx, holdID domain.HoldId) error
}

var _ InventoryServiceTx = (*service.InventoryService)(nil)
