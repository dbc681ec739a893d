// Package httpclient provides bounded HTTP clients the orchestrator uses
// to reach the Inventory and Order services over real loopback HTTP,
// rather than in-process function calls, so the timeout and 503 behavior
// spec.md §5/§6 describes is observable rather than simulated.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ticketing-platform/core/internal/domain"
)

// InventoryClient calls the Inventory Service's HTTP API.
type InventoryClient struct {
	baseURL string
	http    *http.Client
}

// NewInventoryClient constructs an InventoryClient bound at baseURL
// (e.g. "http://localhost:8080/inventory") with the given call timeout.
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// HoldRequest mirrors the Inventory Service's POST /inventory/hold body.
type HoldRequest struct {
	HoldID       string    `json:"hold_id"`
	SessionID    uint64    `json:"session_id"`
	TicketTypeID uint64    `json:"ticket_type_id"`
	Quantity     int64     `json:"quantity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HoldResponse mirrors the Inventory Service's POST /inventory/hold
// response body, for both the 200 success and 409 insufficient-inventory
// shapes.
type HoldResponse struct {
	Success           bool  `json:"success"`
	AvailableQuantity int64 `json:"available_quantity"`
}

// Hold calls POST /inventory/hold. On timeout or connection failure it
// returns a domain.ErrCodeInventoryUnavailable error, which handlers map
// to HTTP 503 per spec.md §5/§7. On a 409 it returns
// domain.ErrCodeInsufficientInventory with the response's
// available_quantity carried in HoldResponse.
func (c *InventoryClient) Hold(ctx context.Context, req HoldRequest) (HoldResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return HoldResponse{}, domain.WrapError(domain.ErrCodeInfrastructure, "marshal hold request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hold", bytes.NewReader(body))
	if err != nil {
		return HoldResponse{}, domain.WrapError(domain.ErrCodeInfrastructure, "build hold request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return HoldResponse{}, domain.NewError(domain.ErrCodeInventoryUnavailable, "inventory service call timed out")
		}
		return HoldResponse{}, domain.NewError(domain.ErrCodeInventoryUnavailable, "inventory service unreachable")
	}
	defer resp.Body.Close()

	var out HoldResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&out); decErr != nil {
		return HoldResponse{}, domain.WrapError(domain.ErrCodeInfrastructure, "decode hold response", decErr)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return out, nil
	case http.StatusConflict:
		return out, domain.NewError(domain.ErrCodeInsufficientInventory, "insufficient inventory")
	case http.StatusServiceUnavailable:
		return HoldResponse{}, domain.NewError(domain.ErrCodeInventoryUnavailable, "inventory service unavailable")
	default:
		return HoldResponse{}, domain.WrapError(domain.ErrCodeInfrastructure, fmt.Sprintf("unexpected inventory status %d", resp.StatusCode), nil)
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}
