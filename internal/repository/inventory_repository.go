// Package repository holds the persistence layer for every aggregate in
// the ticketing platform. Each repository owns exactly one table family
// and never reaches across into another aggregate's tables; callers
// compose repositories inside a service-level transaction when an
// operation must touch more than one.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/ticketing-platform/core/internal/domain"
)

// InventoryRepo provides row-locked access to inventory_items, the table
// backing domain.InventoryItem.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo constructs an InventoryRepo bound to the given handle.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// DB returns the underlying handle so callers can open their own
// transactions spanning this repository and others.
func (r *InventoryRepo) DB() *sql.DB { return r.db }

// LockBySessionAndTicketTypeTx selects the inventory row for
// (sessionID, ticketTypeID) with an exclusive row lock. It must be
// called inside a transaction; the lock is held until that transaction
// ends. Returns sql.ErrNoRows if the row does not exist.
func (r *InventoryRepo) LockBySessionAndTicketTypeTx(ctx context.Context, tx *sql.Tx, sessionID, ticketTypeID uint64) (domain.InventoryItem, error) {
	const q = `SELECT id, session_id, ticket_type_id, total_quantity, available_quantity, created_at, updated_at
	           FROM inventory_items
	           WHERE session_id = ? AND ticket_type_id = ?
	           FOR UPDATE`
	var item domain.InventoryItem
	row := tx.QueryRowContext(ctx, q, sessionID, ticketTypeID)
	if err := row.Scan(&item.ID, &item.SessionID, &item.TicketTypeID, &item.TotalQuantity, &item.AvailableQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// LockByHoldIDTx locks the inventory row backing a hold and loads the
// hold itself in the same locking read, so release() and commit() can
// follow the algorithm's required order: lock the inventory row, then
// load the hold, with both reads reflecting the latest committed state
// rather than a pre-lock snapshot. Returns sql.ErrNoRows if the hold
// does not exist.
func (r *InventoryRepo) LockByHoldIDTx(ctx context.Context, tx *sql.Tx, holdID domain.HoldId) (domain.InventoryItem, domain.Hold, error) {
	const q = `SELECT i.id, i.session_id, i.ticket_type_id, i.total_quantity, i.available_quantity, i.created_at, i.updated_at,
	                  h.id, h.inventory_item_id, h.quantity, h.status, h.expires_at, h.created_at, h.updated_at
	           FROM inventory_items i
	           JOIN holds h ON h.inventory_item_id = i.id
	           WHERE h.id = ?
	           FOR UPDATE`
	var item domain.InventoryItem
	var hold domain.Hold
	var holdUUID string
	var quantity int64
	row := tx.QueryRowContext(ctx, q, holdID.String())
	if err := row.Scan(
		&item.ID, &item.SessionID, &item.TicketTypeID, &item.TotalQuantity, &item.AvailableQuantity, &item.CreatedAt, &item.UpdatedAt,
		&holdUUID, &hold.InventoryItemID, &quantity, &hold.Status, &hold.ExpiresAt, &hold.CreatedAt, &hold.UpdatedAt,
	); err != nil {
		return domain.InventoryItem{}, domain.Hold{}, err
	}
	parsed, err := uuid.Parse(holdUUID)
	if err != nil {
		return domain.InventoryItem{}, domain.Hold{}, err
	}
	hold.ID = domain.NewHoldIdFromUUID(parsed)
	q2, err := domain.NewQuantity(quantity)
	if err != nil {
		return domain.InventoryItem{}, domain.Hold{}, err
	}
	hold.Quantity = q2
	return item, hold, nil
}

// GetBySessionAndTicketType reads the inventory row without locking. Used
// by the advisory availability() query, which tolerates a stale read.
func (r *InventoryRepo) GetBySessionAndTicketType(ctx context.Context, sessionID, ticketTypeID uint64) (domain.InventoryItem, error) {
	const q = `SELECT id, session_id, ticket_type_id, total_quantity, available_quantity, created_at, updated_at
	           FROM inventory_items
	           WHERE session_id = ? AND ticket_type_id = ?`
	var item domain.InventoryItem
	row := r.db.QueryRowContext(ctx, q, sessionID, ticketTypeID)
	if err := row.Scan(&item.ID, &item.SessionID, &item.TicketTypeID, &item.TotalQuantity, &item.AvailableQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// UpdateAvailableQuantityTx writes back the item's available_quantity.
// Must run inside the same transaction that acquired the row lock.
func (r *InventoryRepo) UpdateAvailableQuantityTx(ctx context.Context, tx *sql.Tx, item domain.InventoryItem) error {
	const q = `UPDATE inventory_items SET available_quantity = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, item.AvailableQuantity, item.ID)
	return err
}

// Create inserts a new inventory row. Used by test setup and by the
// (external, out-of-scope) catalog when a session/ticket-type pair is
// first published; the ticketing core itself never creates inventory
// rows as part of hold/release/commit.
func (r *InventoryRepo) Create(ctx context.Context, sessionID, ticketTypeID uint64, totalQuantity int64) (domain.InventoryItem, error) {
	const q = `INSERT INTO inventory_items (session_id, ticket_type_id, total_quantity, available_quantity)
	           VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, sessionID, ticketTypeID, totalQuantity, totalQuantity); err != nil {
		return domain.InventoryItem{}, err
	}
	return r.GetBySessionAndTicketType(ctx, sessionID, ticketTypeID)
}

// HeldQuantity sums the quantity of live (HELD or COMMITTED) holds for
// an inventory item, used to answer the availability() query's
// held_quantity field. Read without a lock; advisory, like the rest of
// availability().
func (r *InventoryRepo) HeldQuantity(ctx context.Context, inventoryItemID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM holds WHERE inventory_item_id = ? AND status IN ('HELD', 'COMMITTED')`
	var sum int64
	if err := r.db.QueryRowContext(ctx, q, inventoryItemID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}
