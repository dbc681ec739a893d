package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/service"
)

// InventoryHandler exposes the Inventory Service's HTTP API: hold,
// release, commit and the advisory availability read, per spec.md §6.
type InventoryHandler struct {
	svc *service.InventoryService
	log zerolog.Logger
}

// NewInventoryHandler constructs an InventoryHandler and panics if svc is
// nil.
func NewInventoryHandler(svc *service.InventoryService, log zerolog.Logger) *InventoryHandler {
	if svc == nil {
		panic("nil service passed to NewInventoryHandler")
	}
	return &InventoryHandler{svc: svc, log: log.With().Str("component", "inventory_handler").Logger()}
}

type holdRequest struct {
	HoldID       string    `json:"hold_id" validate:"required,uuid"`
	SessionID    uint64    `json:"session_id" validate:"required"`
	TicketTypeID uint64    `json:"ticket_type_id" validate:"required"`
	Quantity     int64     `json:"quantity" validate:"required,gt=0"`
	ExpiresAt    time.Time `json:"expires_at" validate:"required"`
}

// Hold handles POST /inventory/hold.
func (h *InventoryHandler) Hold(c echo.Context) error {
	var req holdRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request_body"})
	}
	if err := sharedValidator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": err.Error()})
	}

	holdID, err := domain.NewHoldId(req.HoldID)
	if err != nil {
		return writeDomainError(c, err)
	}
	quantity, err := domain.NewQuantity(req.Quantity)
	if err != nil {
		return writeDomainError(c, err)
	}

	result, err := h.svc.Hold(c.Request().Context(), holdID, req.SessionID, req.TicketTypeID, quantity, req.ExpiresAt)
	if err != nil {
		if domain.IsRetryable(err) {
			h.log.Error().Err(err).Str("hold_id", req.HoldID).Msg("hold failed, infrastructure error")
		}
		if isInsufficientInventory(err) {
			return c.JSON(http.StatusConflict, echo.Map{
				"success":            false,
				"error":              "insufficient_inventory",
				"available_quantity": result.AvailableQuantity,
			})
		}
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "available_quantity": result.AvailableQuantity})
}

type holdIDRequest struct {
	HoldID string `json:"hold_id" validate:"required,uuid"`
}

// Release handles POST /inventory/release.
func (h *InventoryHandler) Release(c echo.Context) error {
	var req holdIDRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request_body"})
	}
	if err := sharedValidator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": err.Error()})
	}
	holdID, err := domain.NewHoldId(req.HoldID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if err := h.svc.Release(c.Request().Context(), holdID); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Commit handles POST /inventory/commit.
func (h *InventoryHandler) Commit(c echo.Context) error {
	var req holdIDRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request_body"})
	}
	if err := sharedValidator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": err.Error()})
	}
	holdID, err := domain.NewHoldId(req.HoldID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if err := h.svc.Commit(c.Request().Context(), holdID); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Availability handles GET /inventory/items/:session_id/:ticket_type_id.
func (h *InventoryHandler) Availability(c echo.Context) error {
	sessionID, err := strconv.ParseUint(c.Param("session_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_session_id"})
	}
	ticketTypeID, err := strconv.ParseUint(c.Param("ticket_type_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_ticket_type_id"})
	}

	avail, err := h.svc.Availability(c.Request().Context(), sessionID, ticketTypeID)
	if err != nil {
		var derr *domain.Error
		if ok := asErr(err, &derr); ok && derr.Code == domain.ErrCodeInvalidArgument {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_quantity":     avail.TotalQuantity,
		"available_quantity": avail.AvailableQuantity,
		"held_quantity":      avail.HeldQuantity,
	})
}

func isInsufficientInventory(err error) bool {
	var derr *domain.Error
	return asErr(err, &derr) && derr.Code == domain.ErrCodeInsufficientInventory
}

func asErr(err error, target **domain.Error) bool {
	type causer interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*domain.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(causer)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
