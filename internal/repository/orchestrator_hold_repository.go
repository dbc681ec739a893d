package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/ticketing-platform/core/internal/domain"
)

// OrchestratorHoldRepo backs the orchestrator's thin mirror of the
// inventory-side hold lifecycle, keyed by the same hold_id. It is the
// only table the expiry loop sweeps.
type OrchestratorHoldRepo struct {
	db *sql.DB
}

// NewOrchestratorHoldRepo constructs an OrchestratorHoldRepo.
func NewOrchestratorHoldRepo(db *sql.DB) *OrchestratorHoldRepo {
	return &OrchestratorHoldRepo{db: db}
}

// DB returns the underlying handle so the expiry loop can open one
// transaction spanning this repository and its outbox.
func (r *OrchestratorHoldRepo) DB() *sql.DB { return r.db }

// Create inserts a new mirror row in ACTIVE status, run right after the
// inventory service's hold() call succeeds.
func (r *OrchestratorHoldRepo) Create(ctx context.Context, h domain.OrchestratorHold) error {
	const q = `INSERT INTO orchestrator_holds (id, customer_email, session_id, ticket_type_id, quantity, status, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, h.ID.String(), h.CustomerEmail.String(), h.SessionID, h.TicketTypeID, h.Quantity.Int64(), h.Status, h.ExpiresAt)
	return err
}

// LockOverdueTx selects, with exclusive row locks, every ACTIVE hold
// whose expires_at is before now, up to limit rows. The expiry loop
// transitions each returned row to EXPIRED and writes its outbox row in
// the same transaction that produced this lock.
func (r *OrchestratorHoldRepo) LockOverdueTx(ctx context.Context, tx *sql.Tx, limit int) ([]domain.OrchestratorHold, error) {
	const q = `SELECT id, customer_email, session_id, ticket_type_id, quantity, status, expires_at, created_at, updated_at
	           FROM orchestrator_holds
	           WHERE status = 'ACTIVE' AND expires_at < UTC_TIMESTAMP()
	           ORDER BY expires_at ASC
	           LIMIT ?
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holds []domain.OrchestratorHold
	for rows.Next() {
		h, err := scanOrchestratorHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// UpdateStatusTx flips a mirror row's status, used by the expiry loop
// after locking it via LockOverdueTx.
func (r *OrchestratorHoldRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id domain.HoldId, status domain.OrchestratorHoldStatus) error {
	const q = `UPDATE orchestrator_holds SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id.String())
	return err
}

func scanOrchestratorHold(rows rowScanner) (domain.OrchestratorHold, error) {
	var h domain.OrchestratorHold
	var id, email string
	var quantity int64
	if err := rows.Scan(&id, &email, &h.SessionID, &h.TicketTypeID, &quantity, &h.Status, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return domain.OrchestratorHold{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.OrchestratorHold{}, err
	}
	h.ID = domain.NewHoldIdFromUUID(parsed)
	emailAddr, err := domain.NewEmailAddress(email)
	if err != nil {
		return domain.OrchestratorHold{}, err
	}
	h.CustomerEmail = emailAddr
	q, err := domain.NewQuantity(quantity)
	if err != nil {
		return domain.OrchestratorHold{}, err
	}
	h.Quantity = q
	return h, nil
}
