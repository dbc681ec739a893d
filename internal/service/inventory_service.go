// Package service implements the business operations of the Inventory
// and Order cores on top of the repository layer, and the background
// workers (expiry loop) that keep their state machines converging.
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

// HoldResult is the outcome of a successful or business-rejected hold().
type HoldResult struct {
	AvailableQuantity int64
}

// InventoryService orchestrates hold/release/commit under row-locked
// transactions, never in-process locks, per the platform's concurrency
// model.
type InventoryService struct {
	db        *sql.DB
	inventory *repository.InventoryRepo
	holds     *repository.HoldRepo
	outbox    *repository.OutboxRepo
	log       zerolog.Logger
}

// NewInventoryService constructs an InventoryService and panics if any
// dependency is nil.
func NewInventoryService(db *sql.DB, inventory *repository.InventoryRepo, holds *repository.HoldRepo, outbox *repository.OutboxRepo, log zerolog.Logger) *InventoryService {
	if db == nil || inventory == nil || holds == nil || outbox == nil {
		panic("nil dependency passed to NewInventoryService")
	}
	return &InventoryService{db: db, inventory: inventory, holds: holds, outbox: outbox, log: log.With().Str("component", "inventory_service").Logger()}
}

// Hold runs the hold algorithm's critical section: lock the inventory
// row, check the caller-supplied hold_id for idempotence, then either
// reject for insufficient inventory or decrement and insert the hold.
func (s *InventoryService) Hold(ctx context.Context, holdID domain.HoldId, sessionID, ticketTypeID uint64, quantity domain.Quantity, expiresAt time.Time) (HoldResult, error) {
	var result HoldResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		item, err := s.inventory.LockBySessionAndTicketTypeTx(ctx, tx, sessionID, ticketTypeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewError(domain.ErrCodeInvalidArgument, "unknown session/ticket_type pair")
			}
			return domain.WrapError(domain.ErrCodeInfrastructure, "lock inventory row", err)
		}

		existing, err := s.holds.GetByIDTx(ctx, tx, holdID)
		switch {
		case err == nil:
			// Idempotent replay: any existing hold with this id short-circuits
			// the critical section regardless of status (HELD, RELEASED or
			// COMMITTED are all terminal-or-current with respect to hold()).
			result = HoldResult{AvailableQuantity: item.AvailableQuantity}
			return nil
		case errors.Is(err, sql.ErrNoRows):
			// fall through to the fresh-hold path below
		default:
			return domain.WrapError(domain.ErrCodeInfrastructure, "load hold", err)
		}

		if !item.CanSatisfy(quantity) {
			result = HoldResult{AvailableQuantity: item.AvailableQuantity}
			return domain.NewError(domain.ErrCodeInsufficientInventory, "insufficient inventory")
		}

		reserved := item.Reserve(quantity)
		if err := s.inventory.UpdateAvailableQuantityTx(ctx, tx, reserved); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "update available_quantity", err)
		}

		hold := domain.Hold{
			ID:              holdID,
			InventoryItemID: item.ID,
			Quantity:        quantity,
			Status:          domain.HoldStatusHeld,
			ExpiresAt:       expiresAt,
		}
		if err := s.holds.CreateTx(ctx, tx, hold); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "insert hold", err)
		}

		if err := s.writeOutboxTx(ctx, tx, domain.EventTypeHoldCreated, holdID.String(), holdCreatedPayload{
			HoldID:        holdID.String(),
			SessionID:     sessionID,
			TicketTypeID:  ticketTypeID,
			Quantity:      quantity.Int64(),
			ExpiresAt:     expiresAt,
		}); err != nil {
			return err
		}

		result = HoldResult{AvailableQuantity: reserved.AvailableQuantity}
		s.log.Info().Str("hold_id", holdID.String()).Int64("quantity", quantity.Int64()).Msg("hold.created")
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// Release runs the release algorithm: HELD -> RELEASED restoring
// quantity; RELEASED is a no-op; COMMITTED is INVALID_STATE_TRANSITION;
// a missing hold is HOLD_NOT_FOUND.
func (s *InventoryService) Release(ctx context.Context, holdID domain.HoldId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.ReleaseTx(ctx, tx, holdID)
	})
}

// ReleaseTx runs the release algorithm inside a caller-owned transaction,
// so a consumer's handler can commit the state change and its dedup
// marker atomically. Per the algorithm's required order, the inventory
// row is locked first and the hold's status is read under that same
// lock, so a concurrent CommitTx for the same hold is always either
// fully visible or fully pending, never observed mid-flight.
func (s *InventoryService) ReleaseTx(ctx context.Context, tx *sql.Tx, holdID domain.HoldId) error {
	item, hold, err := s.inventory.LockByHoldIDTx(ctx, tx, holdID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewError(domain.ErrCodeHoldNotFound, "hold not found")
	}
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "lock inventory row for hold", err)
	}
	if hold.IsReleased() {
		return nil
	}
	if hold.IsCommitted() {
		return domain.NewError(domain.ErrCodeInvalidStateTransition, "cannot release a committed hold")
	}

	released := item.Release(hold.Quantity)
	if err := s.inventory.UpdateAvailableQuantityTx(ctx, tx, released); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "update available_quantity", err)
	}
	if err := s.holds.UpdateStatusTx(ctx, tx, hold.ID, domain.HoldStatusReleased); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "update hold status", err)
	}
	s.log.Info().Str("hold_id", hold.ID.String()).Msg("hold.released")
	return nil
}

// Commit runs the commit algorithm: HELD -> COMMITTED with no quantity
// change; COMMITTED is a no-op; RELEASED is INVALID_STATE_TRANSITION; a
// missing hold is HOLD_NOT_FOUND.
func (s *InventoryService) Commit(ctx context.Context, holdID domain.HoldId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.CommitTx(ctx, tx, holdID)
	})
}

// CommitTx runs the commit algorithm inside a caller-owned transaction,
// so a consumer's handler can commit the state change and its dedup
// marker atomically. It locks the inventory row before reading the
// hold's status for the same reason ReleaseTx does: without that lock a
// concurrent release can observe this hold as still HELD and restore its
// quantity to the available pool after it has already been committed.
func (s *InventoryService) CommitTx(ctx context.Context, tx *sql.Tx, holdID domain.HoldId) error {
	_, hold, err := s.inventory.LockByHoldIDTx(ctx, tx, holdID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewError(domain.ErrCodeHoldNotFound, "hold not found")
	}
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "lock inventory row for hold", err)
	}
	if hold.IsCommitted() {
		return nil
	}
	if hold.IsReleased() {
		return domain.NewError(domain.ErrCodeInvalidStateTransition, "cannot commit a released hold")
	}
	if err := s.holds.UpdateStatusTx(ctx, tx, hold.ID, domain.HoldStatusCommitted); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "update hold status", err)
	}
	s.log.Info().Str("hold_id", hold.ID.String()).Msg("hold.committed")
	return nil
}

// Availability answers the advisory availability() query. It is a plain
// read outside any transaction and may return a slightly stale value.
func (s *InventoryService) Availability(ctx context.Context, sessionID, ticketTypeID uint64) (domain.Availability, error) {
	item, err := s.inventory.GetBySessionAndTicketType(ctx, sessionID, ticketTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Availability{}, domain.NewError(domain.ErrCodeInvalidArgument, "unknown session/ticket_type pair")
	}
	if err != nil {
		return domain.Availability{}, domain.WrapError(domain.ErrCodeInfrastructure, "read inventory row", err)
	}
	held, err := s.inventory.HeldQuantity(ctx, item.ID)
	if err != nil {
		return domain.Availability{}, domain.WrapError(domain.ErrCodeInfrastructure, "sum held quantity", err)
	}
	return domain.Availability{
		TotalQuantity:     item.TotalQuantity,
		AvailableQuantity: item.AvailableQuantity,
		HeldQuantity:      held,
	}, nil
}

func (s *InventoryService) writeOutboxTx(ctx context.Context, tx *sql.Tx, eventType domain.EventType, aggregateID string, payload any) error {
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

func (s *InventoryService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

type holdCreatedPayload struct {
	HoldID       string    `json:"hold_id"`
	SessionID    uint64    `json:"session_id"`
	TicketTypeID uint64    `json:"ticket_type_id"`
	Quantity     int64     `json:"quantity"`
	ExpiresAt    time.Time `json:"expires_at"`
}
