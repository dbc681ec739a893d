package domain

import "time"

// HoldStatus is the inventory-side lifecycle state of a Hold.
type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "HELD"
	HoldStatusReleased  HoldStatus = "RELEASED"
	HoldStatusCommitted HoldStatus = "COMMITTED"
)

// Hold is a time-bounded reservation of Quantity tickets of one
// InventoryItem. Identified by a caller-supplied HoldId so the orchestrator
// and the inventory service agree on identity without a shared sequence.
//
//	(none) --hold()--> HELD --release()--> RELEASED  (terminal)
//	                     \--commit()-----> COMMITTED (terminal)
//
// Transitions out of a terminal state are idempotent no-ops when
// semantically equivalent, else INVALID_STATE_TRANSITION — see CanRelease
// and CanCommit below, which intent-revealing callers should check before
// mutating rather than comparing Status directly.
type Hold struct {
	ID              HoldId
	InventoryItemID uint64
	Quantity        Quantity
	Status          HoldStatus
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (h Hold) IsHeld() bool      { return h.Status == HoldStatusHeld }
func (h Hold) IsReleased() bool  { return h.Status == HoldStatusReleased }
func (h Hold) IsCommitted() bool { return h.Status == HoldStatusCommitted }

// CanRelease reports whether a release() call against this hold should
// mutate state (true), be a no-op success (hold already RELEASED), or be
// rejected outright (COMMITTED — checked separately by the caller via
// IsCommitted, since that path returns INVALID_STATE_TRANSITION rather
// than a plain false).
func (h Hold) CanRelease() bool { return h.IsHeld() }

// CanCommit mirrors CanRelease for the commit() operation.
func (h Hold) CanCommit() bool { return h.IsHeld() }

// Release transitions HELD -> RELEASED. Callers must have already checked
// CanRelease; Release itself does not validate the current status.
func (h Hold) Release() Hold {
	h.Status = HoldStatusReleased
	return h
}

// Commit transitions HELD -> COMMITTED. No quantity change accompanies
// this transition — committed capacity stays carved out of
// AvailableQuantity forever; the decrement already happened at hold time.
func (h Hold) Commit() Hold {
	h.Status = HoldStatusCommitted
	return h
}

// IsExpired reports whether now is past ExpiresAt. Only meaningful while
// Status is HELD; the expiry loop only selects ACTIVE/HELD rows.
func (h Hold) IsExpired(now time.Time) bool {
	return h.IsHeld() && now.After(h.ExpiresAt)
}
