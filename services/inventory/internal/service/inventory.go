package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/repository"
)

// InventoryService implements the business logic for inventory operations.
type InventoryService struct {
	repo   repository.StockRepository
	pool   database.DBTX
	logger *slog.Logger
}

// NewInventoryService creates a new inventory service. The pool is used
// directly for the row-locking reservation transaction.
func NewInventoryService(repo repository.StockRepository, pool database.DBTX, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:   repo,
		pool:   pool,
		logger: logger,
	}
}

// SeedStock creates or replaces the stock level for a product.
func (s *InventoryService) SeedStock(ctx context.Context, productID string, quantity int) (*domain.Stock, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must be non-negative")
	}

	stock, err := s.repo.Upsert(ctx, &domain.Stock{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, fmt.Errorf("seed stock: %w", err)
	}

	s.logger.InfoContext(ctx, "stock seeded",
		slog.String("product_id", stock.ProductID),
		slog.Int("quantity", stock.Quantity),
	)

	return stock, nil
}

// GetStock retrieves the stock level for a product.
func (s *InventoryService) GetStock(ctx context.Context, productID string) (*domain.Stock, error) {
	stock, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return stock, nil
}

// Reserve attempts an all-or-nothing stock reservation for an order. Every
// requested row is locked with SELECT ... FOR UPDATE so concurrent
// reservations on the same products serialize; every shortfall is collected
// (not just the first) and any shortfall rolls the whole transaction back.
// A shortfall is a business outcome carried in the result, never an error:
// errors mean the attempt itself could not run and should be retried.
func (s *InventoryService) Reserve(ctx context.Context, orderID string, items []domain.ReservationItem) (*domain.ReservationResult, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order_id is required")
	}
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("items list cannot be empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reservation transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var failed []domain.FailedItem

	for _, item := range items {
		var available int
		lockQuery := `
			SELECT quantity
			FROM stock
			WHERE product_id = $1
			FOR UPDATE`

		err := tx.QueryRow(ctx, lockQuery, item.ProductID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				failed = append(failed, domain.FailedItem{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: 0,
					Reason:    domain.FailReasonUnknownProduct,
				})
				continue
			}
			return nil, fmt.Errorf("lock stock row for %s: %w", item.ProductID, err)
		}

		if available < item.Quantity {
			failed = append(failed, domain.FailedItem{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: available,
				Reason:    domain.FailReasonInsufficientStock,
			})
			continue
		}

		updateQuery := `
			UPDATE stock
			SET quantity = quantity - $1, updated_at = NOW()
			WHERE product_id = $2`

		if _, err := tx.Exec(ctx, updateQuery, item.Quantity, item.ProductID); err != nil {
			return nil, fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
		}
	}

	if len(failed) > 0 {
		// Deliberate rollback via the deferred Rollback: no stock moves.
		s.logger.InfoContext(ctx, "reservation failed",
			slog.String("order_id", orderID),
			slog.Int("failed_items", len(failed)),
		)
		return &domain.ReservationResult{
			OrderID:     orderID,
			Succeeded:   false,
			FailedItems: failed,
		}, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reservation transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "reservation succeeded",
		slog.String("order_id", orderID),
		slog.Int("items", len(items)),
	)

	return &domain.ReservationResult{
		OrderID:   orderID,
		Succeeded: true,
	}, nil
}
