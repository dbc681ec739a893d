// Package router wires the three HTTP surfaces the platform exposes —
// Inventory, Order and the public Orchestrator API — onto one Echo
// instance, plus the ambient /healthz and /metrics endpoints.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ticketing-platform/core/internal/config"
	"github.com/ticketing-platform/core/internal/handler"
	"github.com/ticketing-platform/core/internal/middleware"
)

// Handlers bundles every HTTP handler cmd/server constructs, so
// RegisterRoutes takes one argument instead of growing a parameter per
// handler as the platform's surface expands.
type Handlers struct {
	Inventory    *handler.InventoryHandler
	Order        *handler.OrderHandler
	Orchestrator *handler.OrchestratorHandler
}

// RegisterRoutes mounts every route this process serves. rdb backs the
// token bucket guarding the whole API surface (keyed by IP, user and
// route unless RATE_LIMIT_KEY_STRATEGY says otherwise); a nil rdb turns
// the limiter into a no-op, per middleware.NewTokenBucket's own
// degrade-gracefully behavior.
func RegisterRoutes(e *echo.Echo, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rateLimitCfg := config.LoadRateLimitConfig()
	e.Use(middleware.NewTokenBucket(rateLimitCfg, rdb))

	inv := e.Group("/inventory")
	inv.POST("/hold", h.Inventory.Hold)
	inv.POST("/release", h.Inventory.Release)
	inv.POST("/commit", h.Inventory.Commit)
	inv.GET("/items/:session_id/:ticket_type_id", h.Inventory.Availability)

	ord := e.Group("/orders")
	ord.POST("", h.Order.Create)
	ord.POST("/:id/confirm", h.Order.Confirm)
	ord.POST("/:id/cancel", h.Order.Cancel)
	ord.GET("/:id", h.Order.Get)

	api := e.Group("/api")
	api.POST("/holds", h.Orchestrator.CreateHold)
	api.POST("/checkout", h.Orchestrator.Checkout)
}
