package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/service"
)

// OrderHandler exposes the Order Service's HTTP API: idempotent create,
// confirm, cancel and get, per spec.md §6.
type OrderHandler struct {
	svc *service.OrderService
	log zerolog.Logger
}

// NewOrderHandler constructs an OrderHandler and panics if svc is nil.
func NewOrderHandler(svc *service.OrderService, log zerolog.Logger) *OrderHandler {
	if svc == nil {
		panic("nil service passed to NewOrderHandler")
	}
	return &OrderHandler{svc: svc, log: log.With().Str("component", "order_handler").Logger()}
}

type orderItemRequest struct {
	SessionID    uint64 `json:"session_id" validate:"required"`
	TicketTypeID uint64 `json:"ticket_type_id" validate:"required"`
	Quantity     int64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice    string `json:"unit_price" validate:"required"`
}

type createOrderRequest struct {
	CustomerEmail string             `json:"customer_email" validate:"required,email"`
	HoldID        string             `json:"hold_id" validate:"required,uuid"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Create handles POST /orders. The caller-supplied Idempotency-Key header
// collapses retries into the original order's effect; a replay returns
// 200, a fresh order returns 201, per spec.md §4.3/§6.
func (h *OrderHandler) Create(c echo.Context) error {
	idemHeader := c.Request().Header.Get("Idempotency-Key")
	if idemHeader == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_idempotency_key"})
	}
	key, err := domain.NewIdempotencyKey(idemHeader)
	if err != nil {
		return writeDomainError(c, err)
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request_body"})
	}
	if err := sharedValidator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": err.Error()})
	}

	email, err := domain.NewEmailAddress(req.CustomerEmail)
	if err != nil {
		return writeDomainError(c, err)
	}
	holdID, err := domain.NewHoldId(req.HoldID)
	if err != nil {
		return writeDomainError(c, err)
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		quantity, err := domain.NewQuantity(it.Quantity)
		if err != nil {
			return writeDomainError(c, err)
		}
		price, err := domain.ParseMoney(it.UnitPrice)
		if err != nil {
			return writeDomainError(c, err)
		}
		items = append(items, domain.OrderItem{
			SessionID:    it.SessionID,
			TicketTypeID: it.TicketTypeID,
			Quantity:     quantity,
			UnitPrice:    price,
		})
	}

	result, err := h.svc.Create(c.Request().Context(), key, email, holdID, items)
	if err != nil {
		return writeDomainError(c, err)
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, orderEnvelope(result.Order))
}

// Confirm handles POST /orders/:id/confirm.
func (h *OrderHandler) Confirm(c echo.Context) error {
	id, err := domain.ParseOrderId(c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	order, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, orderEnvelope(order))
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := domain.ParseOrderId(c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	order, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, orderEnvelope(order))
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := domain.ParseOrderId(c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	order, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, orderEnvelope(order))
}

func orderEnvelope(o domain.Order) echo.Map {
	items := make([]echo.Map, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, echo.Map{
			"session_id":     it.SessionID,
			"ticket_type_id": it.TicketTypeID,
			"quantity":       it.Quantity.Int64(),
			"unit_price":     it.UnitPrice.String(),
		})
	}
	return echo.Map{
		"order_id":        o.ID.String(),
		"customer_email":  o.CustomerEmail.String(),
		"status":          o.Status,
		"total_amount":    o.TotalAmount.String(),
		"hold_id":         o.HoldID.String(),
		"idempotency_key": o.IdempotencyKey.String(),
		"items":           items,
		"payment": echo.Map{
			"status": o.Payment.Status,
			"amount": o.Payment.Amount.String(),
		},
	}
}
