package domain

import "time"

// OrchestratorHoldStatus is the lifecycle state of the orchestrator's
// mirror of a hold. It tracks a coarser lifecycle than the inventory-side
// Hold: the orchestrator only needs to know whether a hold is still live
// for the purpose of sweeping expiries, not whether it was eventually
// committed.
type OrchestratorHoldStatus string

const (
	OrchestratorHoldStatusActive  OrchestratorHoldStatus = "ACTIVE"
	OrchestratorHoldStatusExpired OrchestratorHoldStatus = "EXPIRED"
)

// OrchestratorHold is a thin mirror of the inventory-side hold lifecycle
// plus customer metadata the inventory service has no reason to store.
// The expiry loop sweeps this table, not the inventory service's own
// holds table, and emits hold.expired to its own outbox.
type OrchestratorHold struct {
	ID            HoldId
	CustomerEmail EmailAddress
	SessionID     uint64
	TicketTypeID  uint64
	Quantity      Quantity
	Status        OrchestratorHoldStatus
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (h OrchestratorHold) IsActive() bool  { return h.Status == OrchestratorHoldStatusActive }
func (h OrchestratorHold) IsExpired() bool { return h.Status == OrchestratorHoldStatusExpired }

// IsOverdue reports whether an ACTIVE hold's expiry has passed as of now.
// The expiry loop selects only rows where this is true.
func (h OrchestratorHold) IsOverdue(now time.Time) bool {
	return h.IsActive() && now.After(h.ExpiresAt)
}

// Expire transitions ACTIVE -> EXPIRED. Callers must have already
// filtered on IsOverdue; Expire itself does not validate.
func (h OrchestratorHold) Expire() OrchestratorHold {
	h.Status = OrchestratorHoldStatusExpired
	return h
}
