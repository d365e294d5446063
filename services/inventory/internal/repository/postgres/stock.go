package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/domain"
)

// StockRepository implements repository.StockRepository using PostgreSQL.
type StockRepository struct {
	pool database.DBTX
}

// NewStockRepository creates a new PostgreSQL-backed stock repository.
func NewStockRepository(pool database.DBTX) *StockRepository {
	return &StockRepository{pool: pool}
}

// Upsert creates the stock row for a product or replaces its quantity.
func (r *StockRepository) Upsert(ctx context.Context, stock *domain.Stock) (*domain.Stock, error) {
	query := `
		INSERT INTO stock (product_id, quantity, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING product_id, quantity, updated_at`

	var result domain.Stock
	err := r.pool.QueryRow(ctx, query, stock.ProductID, stock.Quantity, time.Now().UTC()).Scan(
		&result.ProductID,
		&result.Quantity,
		&result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert stock: %w", err)
	}

	return &result, nil
}

// GetByProductID retrieves the stock level for a product.
func (r *StockRepository) GetByProductID(ctx context.Context, productID string) (*domain.Stock, error) {
	query := `
		SELECT product_id, quantity, updated_at
		FROM stock
		WHERE product_id = $1`

	var stock domain.Stock
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&stock.ProductID,
		&stock.Quantity,
		&stock.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stock", productID)
		}
		return nil, fmt.Errorf("scan stock: %w", err)
	}

	return &stock, nil
}
