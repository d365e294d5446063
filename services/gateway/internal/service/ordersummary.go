package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avazquez/FulfillmentGo/services/gateway/internal/client"
)

// OrderSummary aggregates the order with its customer, product and payment
// views. Warnings list the secondary sources that could not be reached;
// IsPartial is set whenever at least one warning is present.
type OrderSummary struct {
	Order     *client.Order     `json:"order"`
	Customer  *client.Customer  `json:"customer,omitempty"`
	Products  []*client.Product `json:"products,omitempty"`
	Payment   *client.Payment   `json:"payment,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
	IsPartial bool              `json:"is_partial"`
}

// OrderFetcher is the downstream surface the aggregator needs.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*client.Order, error)
	GetCustomer(ctx context.Context, userID string) (*client.Customer, error)
	GetProduct(ctx context.Context, productID string) (*client.Product, error)
	GetPaymentForOrder(ctx context.Context, orderID string) (*client.Payment, error)
}

// Aggregator builds order summaries from downstream services.
type Aggregator struct {
	downstream OrderFetcher
	logger     *slog.Logger
}

// NewAggregator creates a new order-summary aggregator.
func NewAggregator(downstream OrderFetcher, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		downstream: downstream,
		logger:     logger,
	}
}

// GetOrderSummary fetches the order and then its customer, product and
// payment views concurrently. The order fetch is load-bearing: its failure
// fails the whole request. Every other source degrades to a warning.
func (a *Aggregator) GetOrderSummary(ctx context.Context, orderID string) (*OrderSummary, error) {
	order, err := a.downstream.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	summary := &OrderSummary{Order: order}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	warn := func(source string, err error) {
		a.logger.WarnContext(ctx, "secondary source unavailable",
			slog.String("source", source),
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		mu.Lock()
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s unavailable", source))
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		customer, err := a.downstream.GetCustomer(ctx, order.UserID)
		if err != nil {
			warn("customer", err)
			return
		}
		mu.Lock()
		summary.Customer = customer
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		products := make([]*client.Product, 0, len(order.Items))
		for _, item := range order.Items {
			product, err := a.downstream.GetProduct(ctx, item.ProductID)
			if err != nil {
				warn("product", err)
				return
			}
			products = append(products, product)
		}
		mu.Lock()
		summary.Products = products
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		payment, err := a.downstream.GetPaymentForOrder(ctx, orderID)
		if err != nil {
			warn("payment", err)
			return
		}
		mu.Lock()
		summary.Payment = payment
		mu.Unlock()
	}()

	wg.Wait()

	summary.IsPartial = len(summary.Warnings) > 0
	return summary, nil
}
