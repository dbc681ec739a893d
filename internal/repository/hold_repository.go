package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/ticketing-platform/core/internal/domain"
)

// HoldRepo provides access to the inventory-side holds table. It is
// owned by the Inventory Service; no other service reads or writes it.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo constructs a HoldRepo bound to the given handle.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// GetByIDTx loads a hold by id within the given transaction. Returns
// sql.ErrNoRows if no hold with that id exists yet.
func (r *HoldRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id domain.HoldId) (domain.Hold, error) {
	const q = `SELECT id, inventory_item_id, quantity, status, expires_at, created_at, updated_at
	           FROM holds WHERE id = ?`
	return scanHold(tx.QueryRowContext(ctx, q, id.String()))
}

// CreateTx inserts a new hold in HELD status.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h domain.Hold) error {
	const q = `INSERT INTO holds (id, inventory_item_id, quantity, status, expires_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, h.ID.String(), h.InventoryItemID, h.Quantity.Int64(), h.Status, h.ExpiresAt)
	return err
}

// UpdateStatusTx flips a hold's status. Used for release() and commit();
// neither mutates quantity.
func (r *HoldRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id domain.HoldId, status domain.HoldStatus) error {
	const q = `UPDATE holds SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id.String())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHold(row rowScanner) (domain.Hold, error) {
	var h domain.Hold
	var id string
	var quantity int64
	if err := row.Scan(&id, &h.InventoryItemID, &quantity, &h.Status, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return domain.Hold{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Hold{}, err
	}
	h.ID = domain.NewHoldIdFromUUID(parsed)
	q, err := domain.NewQuantity(quantity)
	if err != nil {
		return domain.Hold{}, err
	}
	h.Quantity = q
	return h, nil
}
