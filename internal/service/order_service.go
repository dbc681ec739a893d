package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/repository"
)

// PaymentProcessor runs the stubbed payment for an order total. The
// default implementation always succeeds; any other implementation passed
// to NewOrderService can return an error to drive the PAYMENT_FAILED path.
type PaymentProcessor interface {
	Charge(ctx context.Context, order domain.Order) error
}

// AlwaysSucceedsProcessor is the default PaymentProcessor.
type AlwaysSucceedsProcessor struct{}

func (AlwaysSucceedsProcessor) Charge(ctx context.Context, order domain.Order) error { return nil }

// OrderService implements create/confirm/cancel/get with idempotency-key
// based deduplication and the outbox-backed order.confirmed/cancelled
// events.
type OrderService struct {
	db      *sql.DB
	orders  *repository.OrderRepo
	outbox  *repository.OutboxRepo
	payment PaymentProcessor
	log     zerolog.Logger
}

// NewOrderService constructs an OrderService and panics if any
// dependency is nil. payment may be nil, in which case
// AlwaysSucceedsProcessor is used.
func NewOrderService(db *sql.DB, orders *repository.OrderRepo, outbox *repository.OutboxRepo, payment PaymentProcessor, log zerolog.Logger) *OrderService {
	if db == nil || orders == nil || outbox == nil {
		panic("nil dependency passed to NewOrderService")
	}
	if payment == nil {
		payment = AlwaysSucceedsProcessor{}
	}
	return &OrderService{db: db, orders: orders, outbox: outbox, payment: payment, log: log.With().Str("component", "order_service").Logger()}
}

// CreateResult distinguishes a fresh order (Created=true, handler
// returns 201) from an idempotent replay (Created=false, handler
// returns 200), per spec.md §4.3 step 2 / §6.
type CreateResult struct {
	Order   domain.Order
	Created bool
}

// Create looks up idempotency_key first; on a hit it returns the
// existing order untouched. On a miss it validates items, computes the
// total, and inserts the order, items and a PENDING payment in one
// transaction.
func (s *OrderService) Create(ctx context.Context, key domain.IdempotencyKey, email domain.EmailAddress, holdID domain.HoldId, items []domain.OrderItem) (CreateResult, error) {
	var result CreateResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.orders.GetByIdempotencyKeyTx(ctx, tx, key)
		if err == nil {
			result = CreateResult{Order: existing, Created: false}
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.WrapError(domain.ErrCodeInfrastructure, "look up idempotency key", err)
		}

		order, err := domain.NewOrder(key, email, holdID, items)
		if err != nil {
			return err
		}
		if err := s.orders.CreateTx(ctx, tx, order); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "insert order", err)
		}
		result = CreateResult{Order: order, Created: true}
		s.log.Info().Str("order_id", order.ID.String()).Str("idempotency_key", key.String()).Msg("order.created")
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	return result, nil
}

// Confirm runs the payment stub and transitions PENDING -> CONFIRMED.
// CONFIRMED is an idempotent no-op; CANCELLED is
// INVALID_STATE_TRANSITION; on payment failure the order stays PENDING
// and PAYMENT_FAILED is returned for the caller to retry.
func (s *OrderService) Confirm(ctx context.Context, id domain.OrderId) (domain.Order, error) {
	var result domain.Order
	paymentFailed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := s.orders.GetByIDForUpdateTx(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewError(domain.ErrCodeOrderNotFound, "order not found")
		}
		if err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "lock order", err)
		}
		if order.IsConfirmed() {
			result = order
			return nil
		}
		if order.IsCancelled() {
			return domain.NewError(domain.ErrCodeInvalidStateTransition, "order already cancelled")
		}

		if err := s.payment.Charge(ctx, order); err != nil {
			if updErr := s.orders.UpdatePaymentStatusTx(ctx, tx, id, domain.PaymentStatusFailed); updErr != nil {
				return domain.WrapError(domain.ErrCodeInfrastructure, "mark payment failed", updErr)
			}
			// Commit the FAILED payment status; the order itself stays PENDING.
			paymentFailed = true
			return nil
		}

		confirmed := order.Confirm()
		if err := s.orders.UpdateStatusTx(ctx, tx, id, confirmed.Status); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "update order status", err)
		}
		if err := s.orders.UpdatePaymentStatusTx(ctx, tx, id, confirmed.Payment.Status); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "update payment status", err)
		}
		if err := s.writeOutboxTx(ctx, tx, domain.EventTypeOrderConfirmed, id.String(), orderConfirmedPayload{
			OrderID: id.String(),
			HoldID:  order.HoldID.String(),
		}); err != nil {
			return err
		}
		result = confirmed
		s.log.Info().Str("order_id", id.String()).Msg("order.confirmed")
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	if paymentFailed {
		return domain.Order{}, domain.NewError(domain.ErrCodePaymentFailed, "payment failed")
	}
	return result, nil
}

// Cancel transitions PENDING -> CANCELLED. CANCELLED is an idempotent
// no-op; CONFIRMED is INVALID_STATE_TRANSITION. Cancel of an order whose
// hold has already expired is still allowed: the hold's release is
// idempotent, so the expiry flow having already released it causes no
// inconsistency.
func (s *OrderService) Cancel(ctx context.Context, id domain.OrderId) (domain.Order, error) {
	var result domain.Order
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := s.orders.GetByIDForUpdateTx(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewError(domain.ErrCodeOrderNotFound, "order not found")
		}
		if err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "lock order", err)
		}
		if order.IsCancelled() {
			result = order
			return nil
		}
		if order.IsConfirmed() {
			return domain.NewError(domain.ErrCodeInvalidStateTransition, "order already confirmed")
		}

		cancelled := order.Cancel()
		if err := s.orders.UpdateStatusTx(ctx, tx, id, cancelled.Status); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "update order status", err)
		}
		if err := s.writeOutboxTx(ctx, tx, domain.EventTypeOrderCancelled, id.String(), orderCancelledPayload{
			OrderID: id.String(),
		}); err != nil {
			return err
		}
		result = cancelled
		s.log.Info().Str("order_id", id.String()).Msg("order.cancelled")
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// Get reads an order by id, for GET /orders/{id}.
func (s *OrderService) Get(ctx context.Context, id domain.OrderId) (domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.NewError(domain.ErrCodeOrderNotFound, "order not found")
	}
	if err != nil {
		return domain.Order{}, domain.WrapError(domain.ErrCodeInfrastructure, "load order", err)
	}
	return order, nil
}

func (s *OrderService) writeOutboxTx(ctx context.Context, tx *sql.Tx, eventType domain.EventType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "marshal event payload", err)
	}
	rec := domain.OutboxRecord{
		EventID:     domain.NewEventId(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.outbox.InsertTx(ctx, tx, rec); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "insert outbox row", err)
	}
	return nil
}

func (s *OrderService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "commit transaction", err)
	}
	return nil
}

type orderConfirmedPayload struct {
	OrderID string `json:"order_id"`
	HoldID  string `json:"hold_id"`
}

type orderCancelledPayload struct {
	OrderID string `json:"order_id"`
}
