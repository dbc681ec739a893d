package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ticketing-platform/core/internal/domain"
)

// OutboxRepo provides the transactional-outbox pattern against one
// table. Each owning service constructs its own OutboxRepo bound to its
// own table name (inventory_outbox, order_outbox, orchestrator_outbox)
// so ownership stays enforced at the repository boundary rather than by
// convention alone.
type OutboxRepo struct {
	db    *sql.DB
	table string
}

// NewOutboxRepo constructs an OutboxRepo against the given table.
func NewOutboxRepo(db *sql.DB, table string) *OutboxRepo {
	return &OutboxRepo{db: db, table: table}
}

// InsertTx writes a new, unpublished outbox row. Must be called in the
// same transaction as the business mutation the event describes.
func (r *OutboxRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec domain.OutboxRecord) error {
	q := `INSERT INTO ` + r.table + ` (event_id, event_type, aggregate_id, payload, published, created_at)
	      VALUES (?, ?, ?, ?, FALSE, ?)`
	_, err := tx.ExecContext(ctx, q, rec.EventID.String(), rec.EventType, rec.AggregateID, rec.Payload, rec.CreatedAt)
	return err
}

// PollUnpublished selects up to limit unpublished rows ordered by
// created_at ascending, the unit of work for one publisher tick.
func (r *OutboxRepo) PollUnpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	q := `SELECT event_id, event_type, aggregate_id, payload, published, created_at, published_at
	      FROM ` + r.table + `
	      WHERE published = FALSE
	      ORDER BY created_at ASC
	      LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.OutboxRecord
	for rows.Next() {
		rec, err := scanOutboxRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkPublished flips published=true and stamps published_at after a
// successful broker ack. A row may already have been marked by a prior,
// crashed attempt; that is tolerated (at-least-once).
func (r *OutboxRepo) MarkPublished(ctx context.Context, eventID domain.EventId, publishedAt time.Time) error {
	q := `UPDATE ` + r.table + ` SET published = TRUE, published_at = ? WHERE event_id = ?`
	_, err := r.db.ExecContext(ctx, q, publishedAt, eventID.String())
	return err
}

func scanOutboxRow(rows rowScanner) (domain.OutboxRecord, error) {
	var rec domain.OutboxRecord
	var eventID, aggregateID string
	var publishedAt sql.NullTime
	if err := rows.Scan(&eventID, &rec.EventType, &aggregateID, &rec.Payload, &rec.Published, &rec.CreatedAt, &publishedAt); err != nil {
		return domain.OutboxRecord{}, err
	}
	id, err := domain.ParseEventId(eventID)
	if err != nil {
		return domain.OutboxRecord{}, err
	}
	rec.EventID = id
	rec.AggregateID = aggregateID
	if publishedAt.Valid {
		t := publishedAt.Time
		rec.PublishedAt = &t
	}
	return rec, nil
}
