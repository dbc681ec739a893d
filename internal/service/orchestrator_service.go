package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/httpclient"
	"github.com/ticketing-platform/core/internal/repository"
)

// OrchestratorService backs the public POST /api/holds endpoint: it
// mints the hold identity, calls the Inventory Service over real HTTP
// (per spec.md §0/§5), and on success mirrors the hold locally so the
// expiry loop can sweep it later.
type OrchestratorService struct {
	holds     *repository.OrchestratorHoldRepo
	inventory *httpclient.InventoryClient
	holdTTL   time.Duration
	log       zerolog.Logger
}

// NewOrchestratorService constructs an OrchestratorService and panics if
// any dependency is nil.
func NewOrchestratorService(holds *repository.OrchestratorHoldRepo, inventory *httpclient.InventoryClient, holdTTL time.Duration, log zerolog.Logger) *OrchestratorService {
	if holds == nil || inventory == nil {
		panic("nil dependency passed to NewOrchestratorService")
	}
	return &OrchestratorService{holds: holds, inventory: inventory, holdTTL: holdTTL, log: log.With().Str("component", "orchestrator_service").Logger()}
}

// CreateHoldResult is the outcome of a successful CreateHold call.
type CreateHoldResult struct {
	HoldID    domain.HoldId
	ExpiresAt time.Time
}

// CreateHold mints a new HoldId, calls the Inventory Service's hold()
// over HTTP, and mirrors the result locally. The hold_id is minted here
// (not by the Inventory Service) so both sides agree on identity without
// a round trip, per domain.HoldId's contract.
func (s *OrchestratorService) CreateHold(ctx context.Context, email domain.EmailAddress, sessionID, ticketTypeID uint64, quantity domain.Quantity) (CreateHoldResult, error) {
	holdID := domain.NewHoldIdFromUUID(uuid.New())
	expiresAt := time.Now().UTC().Add(s.holdTTL)

	_, err := s.inventory.Hold(ctx, httpclient.HoldRequest{
		HoldID:       holdID.String(),
		SessionID:    sessionID,
		TicketTypeID: ticketTypeID,
		Quantity:     quantity.Int64(),
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return CreateHoldResult{}, err
	}

	mirror := domain.OrchestratorHold{
		ID:            holdID,
		CustomerEmail: email,
		SessionID:     sessionID,
		TicketTypeID:  ticketTypeID,
		Quantity:      quantity,
		Status:        domain.OrchestratorHoldStatusActive,
		ExpiresAt:     expiresAt,
	}
	if err := s.holds.Create(ctx, mirror); err != nil {
		// The inventory-side hold already succeeded; losing the mirror
		// only affects this hold's visibility to the expiry loop, not
		// the no-oversell invariant the inventory service itself owns.
		s.log.Error().Err(err).Str("hold_id", holdID.String()).Msg("inventory hold succeeded but mirror insert failed")
		return CreateHoldResult{}, domain.WrapError(domain.ErrCodeInfrastructure, "persist orchestrator hold mirror", err)
	}

	return CreateHoldResult{HoldID: holdID, ExpiresAt: expiresAt}, nil
}
