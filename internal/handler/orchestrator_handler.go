package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ticketing-platform/core/internal/domain"
	"github.com/ticketing-platform/core/internal/httpclient"
	"github.com/ticketing-platform/core/internal/service"
)

// holdRateLimitScript is the same capacity/refill token bucket the
// teacher's middleware.NewTokenBucket runs, keyed here per customer
// email instead of per user id.
var holdRateLimitScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return allowed
`)

// OrchestratorHandler exposes the public-facing API clients call:
// POST /api/holds (rate-limited, synchronously calls the Inventory
// Service) and POST /api/checkout (proxies to the Order Service), per
// spec.md §6.
//
// The hold rate limiter is a token bucket keyed by customer email,
// adapted from the teacher's per-user allowHold on CustomerHandler: same
// Redis-backed bucket shape, generalized to the identity this core
// actually has at hold time (a customer_email, not an authenticated
// user id, since authentication is out of scope per spec.md §1).
type OrchestratorHandler struct {
	orchestrator *service.OrchestratorService
	orderClient  *httpclient.OrderClient
	log          zerolog.Logger

	redis                 *redis.Client
	rateLimitCapacity     int
	rateLimitRefillTokens int
	rateLimitInterval     time.Duration
	rateLimitTTL          time.Duration
}

// NewOrchestratorHandler constructs an OrchestratorHandler and panics if
// orchestrator or orderClient is nil. A nil redis client disables rate
// limiting (allowHold always returns true), matching
// middleware.NewTokenBucket's graceful no-op when Redis is unavailable.
func NewOrchestratorHandler(orchestrator *service.OrchestratorService, orderClient *httpclient.OrderClient, redisClient *redis.Client, capacity, refillTokens int, refillInterval, ttl time.Duration, log zerolog.Logger) *OrchestratorHandler {
	if orchestrator == nil || orderClient == nil {
		panic("nil dependency passed to NewOrchestratorHandler")
	}
	return &OrchestratorHandler{
		orchestrator:          orchestrator,
		orderClient:           orderClient,
		redis:                 redisClient,
		rateLimitCapacity:     capacity,
		rateLimitRefillTokens: refillTokens,
		rateLimitInterval:     refillInterval,
		rateLimitTTL:          ttl,
		log:                   log.With().Str("component", "orchestrator_handler").Logger(),
	}
}

// allowHold runs holdRateLimitScript against a bucket keyed by customer
// email, generalized from middleware.NewTokenBucket's per-user key. If
// Redis is unreachable or unconfigured, the request is allowed.
func (h *OrchestratorHandler) allowHold(ctx context.Context, email string) (bool, error) {
	if h.redis == nil || h.rateLimitCapacity <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("hold_rate:%s", email)
	now := time.Now()
	result, err := holdRateLimitScript.Run(ctx, h.redis, []string{key},
		now.UnixMilli(),
		h.rateLimitCapacity,
		h.rateLimitRefillTokens,
		h.rateLimitInterval.Milliseconds(),
		int64(h.rateLimitTTL/time.Second),
	).Result()
	if err != nil {
		return true, err
	}
	allowed, _ := result.(int64)
	return allowed == 1, nil
}

type createHoldRequest struct {
	SessionID     uint64 `json:"session_id" validate:"required"`
	TicketTypeID  uint64 `json:"ticket_type_id" validate:"required"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
}

// CreateHold handles POST /api/holds.
func (h *OrchestratorHandler) CreateHold(c echo.Context) error {
	var req createHoldRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request_body"})
	}
	if err := sharedValidator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_argument", "message": err.Error()})
	}

	ctx := c.Request().Context()
	allowed, err := h.allowHold(ctx, req.CustomerEmail)
	if err != nil {
		h.log.Warn().Err(err).Msg("rate limiter check failed, allowing request")
	}
	if !allowed {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too_many_requests"})
	}

	email, err := domain.NewEmailAddress(req.CustomerEmail)
	if err != nil {
		return writeDomainError(c, err)
	}
	quantity, err := domain.NewQuantity(req.Quantity)
	if err != nil {
		return writeDomainError(c, err)
	}

	result, err := h.orchestrator.CreateHold(ctx, email, req.SessionID, req.TicketTypeID, quantity)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":    result.HoldID.String(),
		"expires_at": result.ExpiresAt,
	})
}

// Checkout handles POST /api/checkout, proxying the request body and
// Idempotency-Key header to the Order Service's POST /orders unchanged.
func (h *OrchestratorHandler) Checkout(c echo.Context) error {
	idemKey := c.Request().Header.Get("Idempotency-Key")
	if idemKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_idempotency_key"})
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request_body"})
	}

	resp, err := h.orderClient.CreateOrder(c.Request().Context(), idemKey, body)
	if err != nil {
		h.log.Error().Err(err).Msg("order service unreachable")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "order_service_unavailable"})
	}
	return c.Blob(resp.StatusCode, resp.ContentType, resp.Body)
}
