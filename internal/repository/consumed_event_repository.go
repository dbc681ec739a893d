package repository

import (
	"context"
	"database/sql"

	"github.com/ticketing-platform/core/internal/domain"
)

// ConsumedEventRepo backs one consumer's dedup table. Each consumer owns
// its own table (e.g. inventory_consumed_events) so two consumers never
// share a dedup namespace.
type ConsumedEventRepo struct {
	db    *sql.DB
	table string
}

// NewConsumedEventRepo constructs a ConsumedEventRepo against the given
// table.
func NewConsumedEventRepo(db *sql.DB, table string) *ConsumedEventRepo {
	return &ConsumedEventRepo{db: db, table: table}
}

// DB returns the underlying handle for callers opening their own
// transaction spanning this repository and a domain handler's effect.
func (r *ConsumedEventRepo) DB() *sql.DB { return r.db }

// HasConsumedTx reports whether event_id is already recorded as
// consumed, checked inside the same transaction as the handler's effect
// so the check-then-insert is atomic with respect to concurrent
// redeliveries of the same message.
func (r *ConsumedEventRepo) HasConsumedTx(ctx context.Context, tx *sql.Tx, eventID domain.EventId) (bool, error) {
	q := `SELECT 1 FROM ` + r.table + ` WHERE event_id = ?`
	var one int
	err := tx.QueryRowContext(ctx, q, eventID.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx records event_id as consumed. Must run in the same
// transaction as the handler's domain effect, and must be committed
// before the message is acked.
func (r *ConsumedEventRepo) InsertTx(ctx context.Context, tx *sql.Tx, ev domain.ConsumedEvent) error {
	q := `INSERT INTO ` + r.table + ` (event_id, event_type, consumed_at) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, ev.EventID.String(), ev.EventType, ev.ConsumedAt)
	return err
}
