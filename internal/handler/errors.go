package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ticketing-platform/core/internal/domain"
)

// writeDomainError maps a domain.Error to the HTTP shape spec.md §7
// assigns it. Internal details (SQL text, stack traces) never reach the
// response body; infrastructure failures collapse to a generic 500 whose
// body is only {"error":"internal_error"}.
func writeDomainError(c echo.Context, err error) error {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}

	switch derr.Code {
	case domain.ErrCodeInsufficientInventory:
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient_inventory", "message": derr.Message})
	case domain.ErrCodeHoldNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hold_not_found", "message": derr.Message})
	case domain.ErrCodeOrderNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order_not_found", "message": derr.Message})
	case domain.ErrCodeInvalidStateTransition:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_state", "message": derr.Message})
	case domain.ErrCodePaymentFailed:
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment_failed", "message": derr.Message})
	case domain.ErrCodeInvalidArgument:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": derr.Message})
	case domain.ErrCodeInventoryUnavailable:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "inventory_service_unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}
}

var sharedValidator = newValidator()
