package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketing-platform/core/internal/domain"
)

// OrderRepo provides access to orders, order_items and payments. Owned
// by the Order Service.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo bound to the given handle.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB returns the underlying handle for callers that need to open their
// own transaction spanning this repository.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// GetByIdempotencyKeyTx looks up an order by its idempotency key. Returns
// sql.ErrNoRows if none exists yet; the caller treats that as "create".
func (r *OrderRepo) GetByIdempotencyKeyTx(ctx context.Context, tx *sql.Tx, key domain.IdempotencyKey) (domain.Order, error) {
	const q = `SELECT id FROM orders WHERE idempotency_key = ?`
	var id string
	if err := tx.QueryRowContext(ctx, q, key.String()).Scan(&id); err != nil {
		return domain.Order{}, err
	}
	orderID, err := domain.ParseOrderId(id)
	if err != nil {
		return domain.Order{}, err
	}
	return r.GetByIDTx(ctx, tx, orderID)
}

// GetByIDTx loads an order, its items, and its payment within a
// transaction. Returns sql.ErrNoRows if the order does not exist.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id domain.OrderId) (domain.Order, error) {
	const q = `SELECT id, customer_email, status, total_amount, idempotency_key, hold_id, created_at, updated_at
	           FROM orders WHERE id = ?`
	order, err := scanOrder(tx.QueryRowContext(ctx, q, id.String()))
	if err != nil {
		return domain.Order{}, err
	}
	items, err := r.itemsForOrderTx(ctx, tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	payment, err := r.paymentForOrderTx(ctx, tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Payment = payment
	return order, nil
}

// GetByIDForUpdateTx loads an order the same way GetByIDTx does, but
// takes an exclusive lock on the orders row first. confirm() and
// cancel() use this instead of GetByIDTx so two concurrent calls for the
// same order serialize on that row rather than both reading PENDING and
// both performing the transition.
func (r *OrderRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id domain.OrderId) (domain.Order, error) {
	const q = `SELECT id, customer_email, status, total_amount, idempotency_key, hold_id, created_at, updated_at
	           FROM orders WHERE id = ? FOR UPDATE`
	order, err := scanOrder(tx.QueryRowContext(ctx, q, id.String()))
	if err != nil {
		return domain.Order{}, err
	}
	items, err := r.itemsForOrderTx(ctx, tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	payment, err := r.paymentForOrderTx(ctx, tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Payment = payment
	return order, nil
}

// GetByID loads an order in its own read-only transaction, for the
// GET /orders/{id} handler.
func (r *OrderRepo) GetByID(ctx context.Context, id domain.OrderId) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback()
	order, err := r.GetByIDTx(ctx, tx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return order, tx.Commit()
}

// CreateTx inserts an order, its items and its payment row.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o domain.Order) error {
	const insertOrder = `INSERT INTO orders (id, customer_email, status, total_amount, idempotency_key, hold_id, created_at, updated_at)
	                      VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, insertOrder, o.ID.String(), o.CustomerEmail.String(), o.Status, o.TotalAmount.Decimal(), o.IdempotencyKey.String(), o.HoldID.String(), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	const insertItem = `INSERT INTO order_items (order_id, session_id, ticket_type_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`
	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx, insertItem, o.ID.String(), item.SessionID, item.TicketTypeID, item.Quantity.Int64(), item.UnitPrice.Decimal()); err != nil {
			return err
		}
	}
	const insertPayment = `INSERT INTO payments (order_id, status, amount) VALUES (?, ?, ?)`
	_, err = tx.ExecContext(ctx, insertPayment, o.ID.String(), o.Payment.Status, o.Payment.Amount.Decimal())
	return err
}

// UpdateStatusTx flips the order's status.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id domain.OrderId, status domain.OrderStatus) error {
	const q = `UPDATE orders SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id.String())
	return err
}

// UpdatePaymentStatusTx flips the order's payment status.
func (r *OrderRepo) UpdatePaymentStatusTx(ctx context.Context, tx *sql.Tx, id domain.OrderId, status domain.PaymentStatus) error {
	const q = `UPDATE payments SET status = ? WHERE order_id = ?`
	_, err := tx.ExecContext(ctx, q, status, id.String())
	return err
}

func (r *OrderRepo) itemsForOrderTx(ctx context.Context, tx *sql.Tx, id domain.OrderId) ([]domain.OrderItem, error) {
	const q = `SELECT id, session_id, ticket_type_id, quantity, unit_price FROM order_items WHERE order_id = ?`
	rows, err := tx.QueryContext(ctx, q, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var quantity int64
		var unitPrice decimal.Decimal
		if err := rows.Scan(&item.ID, &item.SessionID, &item.TicketTypeID, &quantity, &unitPrice); err != nil {
			return nil, err
		}
		q, err := domain.NewQuantity(quantity)
		if err != nil {
			return nil, err
		}
		item.Quantity = q
		money, err := domain.NewMoney(unitPrice)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = money
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepo) paymentForOrderTx(ctx context.Context, tx *sql.Tx, id domain.OrderId) (domain.Payment, error) {
	const q = `SELECT id, status, amount FROM payments WHERE order_id = ?`
	var p domain.Payment
	var amount decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, id.String()).Scan(&p.ID, &p.Status, &amount); err != nil {
		return domain.Payment{}, err
	}
	money, err := domain.NewMoney(amount)
	if err != nil {
		return domain.Payment{}, err
	}
	p.Amount = money
	return p, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var id, email, holdID, idemKey string
	var total decimal.Decimal
	if err := row.Scan(&id, &email, &o.Status, &total, &idemKey, &holdID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	orderID, err := domain.ParseOrderId(id)
	if err != nil {
		return domain.Order{}, err
	}
	o.ID = orderID
	emailAddr, err := domain.NewEmailAddress(email)
	if err != nil {
		return domain.Order{}, err
	}
	o.CustomerEmail = emailAddr
	money, err := domain.NewMoney(total)
	if err != nil {
		return domain.Order{}, err
	}
	o.TotalAmount = money
	key, err := domain.NewIdempotencyKey(idemKey)
	if err != nil {
		return domain.Order{}, err
	}
	o.IdempotencyKey = key
	hid, err := uuid.Parse(holdID)
	if err != nil {
		return domain.Order{}, err
	}
	o.HoldID = domain.NewHoldIdFromUUID(hid)
	return o, nil
}
