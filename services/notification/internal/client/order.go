package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/httpclient"
)

// Order is the subset of the order-service representation the notification
// service needs.
type Order struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

type orderEnvelope struct {
	Success bool   `json:"success"`
	Data    *Order `json:"data"`
	Message string `json:"message"`
}

// OrderClient fetches orders from the order service.
type OrderClient struct {
	baseURL string
	client  *httpclient.CircuitBreakerClient
}

// NewOrderClient creates a client for the order service at baseURL.
func NewOrderClient(baseURL string, logger *slog.Logger) *OrderClient {
	inner := httpclient.New(httpclient.DefaultConfig())
	return &OrderClient{
		baseURL: baseURL,
		client:  httpclient.NewCircuitBreakerClient(inner, httpclient.DefaultCircuitBreakerConfig("order-service"), logger),
	}
}

// GetOrder retrieves an order by ID.
func (c *OrderClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	url := fmt.Sprintf("%s/api/v1/orders/%s", c.baseURL, orderID)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("order", orderID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch order %s: unexpected status %d", orderID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}

	var envelope orderEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("order response for %s has no data", orderID)
	}

	return envelope.Data, nil
}
