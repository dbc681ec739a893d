package domain

import (
	"github.com/shopspring/decimal"
)

// Quantity is a strictly positive count of tickets. Invalid values cannot
// exist in the domain — construction is the only way in.
type Quantity struct{ value int64 }

// NewQuantity validates n > 0.
func NewQuantity(n int64) (Quantity, error) {
	if n <= 0 {
		return Quantity{}, NewError(ErrCodeInvalidArgument, "quantity must be greater than zero")
	}
	return Quantity{value: n}, nil
}

func (q Quantity) Int64() int64 { return q.value }

func (q Quantity) Add(other Quantity) Quantity { return Quantity{value: q.value + other.value} }

// Money is a non-negative monetary amount. Internally backed by
// shopspring/decimal so totals never accumulate floating-point drift.
type Money struct{ amount decimal.Decimal }

// ZeroMoney is the additive identity, useful as an accumulator seed.
func ZeroMoney() Money { return Money{amount: decimal.Zero} }

// NewMoney validates amount >= 0.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, NewError(ErrCodeInvalidArgument, "money amount must not be negative")
	}
	return Money{amount: amount}, nil
}

// NewMoneyFromCents builds Money from an integer cent amount, the unit the
// teacher's show_seats.price_cents column uses.
func NewMoneyFromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, NewError(ErrCodeInvalidArgument, "money amount must not be negative")
	}
	return Money{amount: decimal.New(cents, -2)}, nil
}

// ParseMoney parses a decimal string (as submitted in a request body's
// unit_price field) into Money, rejecting malformed or negative input.
func ParseMoney(raw string) (Money, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, NewError(ErrCodeInvalidArgument, "unit_price is not a valid decimal amount")
	}
	return NewMoney(amount)
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(other Money) Money { return Money{amount: m.amount.Add(other.amount)} }

// MultiplyByQuantity scales a unit price by a quantity of tickets.
func (m Money) MultiplyByQuantity(q Quantity) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(q.Int64()))}
}

func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

func (m Money) String() string { return m.amount.StringFixed(2) }
