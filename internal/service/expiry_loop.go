package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/repository"
)

// ExpiryLoop periodically sweeps the orchestrator's hold mirror for
// overdue ACTIVE holds, flips them to EXPIRED, and writes one
// hold.expired outbox row per hold — the status transition and the
// outbox write happen in the same transaction so a crash mid-sweep can
// neither lose an expiry nor duplicate an outbox row.
type ExpiryLoop struct {
	db     *sql.DB
	holds  *repository.OrchestratorHoldRepo
	outbox *repository.OutboxRepo
	log    zerolog.Logger

	interval  time.Duration
	batchSize int
}

// NewExpiryLoop constructs an ExpiryLoop and panics if any dependency is
// nil.
func NewExpiryLoop(db *sql.DB, holds *repository.OrchestratorHoldRepo, outbox *repository.OutboxRepo, interval time.Duration, batchSize int, log zerolog.Logger) *ExpiryLoop {
	if db == nil || holds == nil || outbox == nil {
		panic("nil dependency passed to NewExpiryLoop")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpiryLoop{
		db:        db,
		holds:     holds,
		outbox:    outbox,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With().Str("component", "expiry_loop").Logger(),
	}
}

// Run blocks, ticking every interval until ctx is cancelled. Intended to
// run in its own goroutine from cmd/server.
func (l *ExpiryLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.sweep(ctx); err != nil {
				l.log.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}

func (l *ExpiryLoop) sweep(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	overdue, err := l.holds.LockOverdueTx(ctx, tx, l.batchSize)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "lock overdue holds", err)
	}
	if len(overdue) == 0 {
		return nil
	}

	for _, h := range overdue {
		if err := l.holds.UpdateStatusTx(ctx, tx, h.ID, domain.OrchestratorHoldStatusExpired); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "update hold status", err)
		}
		body, err := json.Marshal(holdExpiredPayload{HoldID: h.ID.String()})
		if err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "marshal event payload", err)
		}
		rec := domain.OutboxRecord{
			EventID:     domain.NewEventId(),
			EventType:   domain.EventTypeHoldExpired,
			AggregateID: h.ID.String(),
			Payload:     body,
			CreatedAt:   time.Now().UTC(),
		}
		if err := l.outbox.InsertTx(ctx, tx, rec); err != nil {
			return domain.WrapError(domain.ErrCodeInfrastructure, "insert outbox row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrCodeInfrastructure, "commit transaction", err)
	}
	l.log.Info().Int("count", len(overdue)).Msg("holds expired")
	return nil
}

type holdExpiredPayload struct {
	HoldID string `json:"hold_id"`
}
