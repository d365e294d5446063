package repository

import (
	"context"

	"github.com/avazquez/FulfillmentGo/services/inventory/internal/domain"
)

// StockRepository defines the interface for stock persistence operations.
// Reservations bypass this interface: they run their own row-locking
// transaction in the service layer.
type StockRepository interface {
	// Upsert creates the stock row for a product or replaces its quantity.
	Upsert(ctx context.Context, stock *domain.Stock) (*domain.Stock, error)

	// GetByProductID retrieves the stock level for a product.
	GetByProductID(ctx context.Context, productID string) (*domain.Stock, error)
}
