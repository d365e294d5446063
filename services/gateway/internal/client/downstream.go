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

// OrderItem is a line item as exposed by the order service.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Order is the order-service view of an order.
type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items"`
	TotalAmount  int64       `json:"total_amount"`
	Currency     string      `json:"currency"`
	CancelReason string      `json:"cancel_reason,omitempty"`
}

// Customer is the customer-service view of a user.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Product is the product-catalog view of a product.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// Payment is the payment-service view of an order's payment.
type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
}

// Downstream fetches views from the services the gateway aggregates. Each
// downstream gets its own circuit breaker so one failing dependency cannot
// exhaust the others.
type Downstream struct {
	orders    *httpclient.CircuitBreakerClient
	customers *httpclient.CircuitBreakerClient
	products  *httpclient.CircuitBreakerClient
	payments  *httpclient.CircuitBreakerClient

	orderURL    string
	customerURL string
	productURL  string
	paymentURL  string
}

// Config holds the downstream base URLs.
type Config struct {
	OrderURL    string
	CustomerURL string
	ProductURL  string
	PaymentURL  string
}

// NewDownstream creates clients for every downstream the gateway talks to.
func NewDownstream(cfg Config, logger *slog.Logger) *Downstream {
	newCB := func(name string) *httpclient.CircuitBreakerClient {
		return httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig(name),
			logger,
		)
	}

	return &Downstream{
		orders:      newCB("order-service"),
		customers:   newCB("customer-service"),
		products:    newCB("product-service"),
		payments:    newCB("payment-service"),
		orderURL:    cfg.OrderURL,
		customerURL: cfg.CustomerURL,
		productURL:  cfg.ProductURL,
		paymentURL:  cfg.PaymentURL,
	}
}

// GetOrder retrieves an order from the order service.
func (d *Downstream) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	url := fmt.Sprintf("%s/api/v1/orders/%s", d.orderURL, orderID)
	if err := getJSON(ctx, d.orders, url, "order", orderID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetCustomer retrieves a customer profile.
func (d *Downstream) GetCustomer(ctx context.Context, userID string) (*Customer, error) {
	var customer Customer
	url := fmt.Sprintf("%s/api/v1/customers/%s", d.customerURL, userID)
	if err := getJSON(ctx, d.customers, url, "customer", userID, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetProduct retrieves product details from the catalog.
func (d *Downstream) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	url := fmt.Sprintf("%s/api/v1/products/%s", d.productURL, productID)
	if err := getJSON(ctx, d.products, url, "product", productID, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetPaymentForOrder retrieves the payment recorded for an order.
func (d *Downstream) GetPaymentForOrder(ctx context.Context, orderID string) (*Payment, error) {
	var payment Payment
	url := fmt.Sprintf("%s/api/v1/payments/order/%s", d.paymentURL, orderID)
	if err := getJSON(ctx, d.payments, url, "payment", orderID, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// envelope is the standard response wrapper every downstream uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func getJSON(ctx context.Context, cb *httpclient.CircuitBreakerClient, url, resource, id string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}

	resp, err := cb.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", resource, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NotFound(resource, id)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s %s: unexpected status %d", resource, id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", resource, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	if env.Data == nil {
		return fmt.Errorf("%s response for %s has no data", resource, id)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", resource, err)
	}
	return nil
}
