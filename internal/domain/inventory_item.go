package domain

import "time"

// InventoryItem tracks available capacity for one (session_id,
// ticket_type_id) pair. Invariant: 0 <= AvailableQuantity <= TotalQuantity.
// The stronger invariant — AvailableQuantity + held + committed ==
// TotalQuantity — is enforced by the repository layer's bookkeeping, not
// by this struct alone, since held/committed totals live in the Hold rows.
type InventoryItem struct {
	ID                 uint64
	SessionID          uint64
	TicketTypeID       uint64
	TotalQuantity       int64
	AvailableQuantity   int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanSatisfy reports whether quantity can be carved out of what remains
// available. Callers must hold the row's exclusive lock before relying on
// this; it is a pure predicate over already-fetched state.
func (i InventoryItem) CanSatisfy(q Quantity) bool {
	return i.AvailableQuantity >= q.Int64()
}

// Reserve returns a copy with AvailableQuantity decremented by q. It does
// not check CanSatisfy — callers are expected to have checked already so
// that the failure path can return the pre-decrement count unmodified.
func (i InventoryItem) Reserve(q Quantity) InventoryItem {
	i.AvailableQuantity -= q.Int64()
	return i
}

// Release returns a copy with AvailableQuantity incremented by q. A
// committed hold's quantity must never pass through Release — see Hold's
// state machine, which makes COMMITTED terminal without a quantity change.
func (i InventoryItem) Release(q Quantity) InventoryItem {
	i.AvailableQuantity += q.Int64()
	if i.AvailableQuantity > i.TotalQuantity {
		i.AvailableQuantity = i.TotalQuantity
	}
	return i
}

// Availability is the result of the availability query. HeldQuantity is
// a derived view; it is not stored directly and must be summed from live
// Hold rows by the caller.
type Availability struct {
	TotalQuantity     int64
	AvailableQuantity int64
	HeldQuantity      int64
}
