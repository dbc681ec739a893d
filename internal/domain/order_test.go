package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderItem(t *testing.T, qty int64, unitPriceCents int64) OrderItem {
	t.Helper()
	q, err := NewQuantity(qty)
	require.NoError(t, err)
	price, err := NewMoneyFromCents(unitPriceCents)
	require.NoError(t, err)
	return OrderItem{SessionID: 1, TicketTypeID: 2, Quantity: q, UnitPrice: price}
}

func TestNewOrder_ComputesTotal(t *testing.T) {
	key, err := NewIdempotencyKey("k-1")
	require.NoError(t, err)
	email, err := NewEmailAddress("u@example.com")
	require.NoError(t, err)
	hold := NewHoldIdFromUUID(uuid.New())
	items := []OrderItem{newTestOrderItem(t, 2, 5000)}

	order, err := NewOrder(key, email, hold, items)
	require.NoError(t, err)
	assert.True(t, order.IsPending())
	expected, _ := NewMoney(decimal.NewFromFloat(100.00))
	assert.True(t, order.TotalAmount.Equal(expected))
	assert.Equal(t, PaymentStatusPending, order.Payment.Status)
}

func TestNewOrder_RejectsEmptyItems(t *testing.T) {
	key, _ := NewIdempotencyKey("k-1")
	email, _ := NewEmailAddress("u@example.com")
	_, err := NewOrder(key, email, NewHoldIdFromUUID(uuid.New()), nil)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrCodeInvalidArgument, derr.Code)
}

func TestOrder_ConfirmTransition(t *testing.T) {
	key, _ := NewIdempotencyKey("k-1")
	email, _ := NewEmailAddress("u@example.com")
	order, err := NewOrder(key, email, NewHoldIdFromUUID(uuid.New()), []OrderItem{newTestOrderItem(t, 1, 1000)})
	require.NoError(t, err)

	require.True(t, order.CanConfirm())
	confirmed := order.Confirm()
	assert.True(t, confirmed.IsConfirmed())
	assert.Equal(t, PaymentStatusSucceeded, confirmed.Payment.Status)
	assert.False(t, confirmed.CanConfirm())
	assert.False(t, confirmed.CanCancel())
}

func TestOrder_CancelTransition(t *testing.T) {
	key, _ := NewIdempotencyKey("k-1")
	email, _ := NewEmailAddress("u@example.com")
	order, err := NewOrder(key, email, NewHoldIdFromUUID(uuid.New()), []OrderItem{newTestOrderItem(t, 1, 1000)})
	require.NoError(t, err)

	require.True(t, order.CanCancel())
	cancelled := order.Cancel()
	assert.True(t, cancelled.IsCancelled())
	assert.False(t, cancelled.CanConfirm())
	assert.False(t, cancelled.CanCancel())
}

func TestEmailAddress_RejectsInvalid(t *testing.T) {
	_, err := NewEmailAddress("not-an-email")
	require.Error(t, err)
}

func TestQuantity_RejectsNonPositive(t *testing.T) {
	_, err := NewQuantity(0)
	require.Error(t, err)
	_, err = NewQuantity(-1)
	require.Error(t, err)
}

func TestMoney_RejectsNegative(t *testing.T) {
	_, err := NewMoney(decimal.NewFromFloat(-1))
	require.Error(t, err)
}
