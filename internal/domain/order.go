package domain

import "time"

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus mirrors the stubbed payment's outcome.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// OrderItem belongs to exactly one Order.
type OrderItem struct {
	ID           uint64
	SessionID    uint64
	TicketTypeID uint64
	Quantity     Quantity
	UnitPrice    Money
}

// Subtotal is UnitPrice * Quantity for this line item.
func (i OrderItem) Subtotal() Money { return i.UnitPrice.MultiplyByQuantity(i.Quantity) }

// Payment is 1:1 with an Order.
type Payment struct {
	ID     uint64
	Status PaymentStatus
	Amount Money
}

// Order is the idempotent order aggregate.
//
//	PENDING --confirm()--> CONFIRMED (terminal)
//	   \-------cancel()--> CANCELLED (terminal)
//
// Terminal states reject further transitions except: re-confirm of an
// already-CONFIRMED order (idempotent, returns current state) and
// re-cancel of an already-CANCELLED order (idempotent, returns current
// state). Cancel of a CONFIRMED order is INVALID_STATE_TRANSITION.
type Order struct {
	ID             OrderId
	CustomerEmail  EmailAddress
	Status         OrderStatus
	TotalAmount    Money
	IdempotencyKey IdempotencyKey
	HoldID         HoldId
	Items          []OrderItem
	Payment        Payment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (o Order) IsPending() bool   { return o.Status == OrderStatusPending }
func (o Order) IsConfirmed() bool { return o.Status == OrderStatusConfirmed }
func (o Order) IsCancelled() bool { return o.Status == OrderStatusCancelled }

// CanConfirm reports whether confirm() should attempt the payment stub and
// mutate state. A CONFIRMED order is handled by the caller as an idempotent
// no-op (not via CanConfirm, since that path skips the payment stub
// entirely and simply returns current state).
func (o Order) CanConfirm() bool { return o.IsPending() }

// CanCancel mirrors CanConfirm for cancel().
func (o Order) CanCancel() bool { return o.IsPending() }

// Confirm transitions PENDING -> CONFIRMED and marks the payment
// succeeded. Callers must have already run the payment stub successfully
// and checked CanConfirm.
func (o Order) Confirm() Order {
	o.Status = OrderStatusConfirmed
	o.Payment.Status = PaymentStatusSucceeded
	return o
}

// Cancel transitions PENDING -> CANCELLED.
func (o Order) Cancel() Order {
	o.Status = OrderStatusCancelled
	return o
}

// computeTotal sums all item subtotals. NewOrder uses it so the order
// total and the payment amount are computed in one place.
func computeTotal(items []OrderItem) Money {
	total := ZeroMoney()
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// NewOrder validates items and builds a PENDING order with a PENDING
// payment sized to the computed total. It does not touch persistence.
func NewOrder(idempotencyKey IdempotencyKey, email EmailAddress, holdID HoldId, items []OrderItem) (Order, error) {
	if len(items) == 0 {
		return Order{}, NewError(ErrCodeInvalidArgument, "order must contain at least one item")
	}
	total := computeTotal(items)
	now := time.Now().UTC()
	return Order{
		ID:             NewOrderId(),
		CustomerEmail:  email,
		Status:         OrderStatusPending,
		TotalAmount:    total,
		IdempotencyKey: idempotencyKey,
		HoldID:         holdID,
		Items:          items,
		Payment:        Payment{Status: PaymentStatusPending, Amount: total},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
