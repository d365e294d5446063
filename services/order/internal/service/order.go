package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/order/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/order/internal/event"
	"github.com/avazquez/FulfillmentGo/services/order/internal/repository"
)

// OrderPublisher publishes order lifecycle events.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo      repository.OrderRepository
	publisher OrderPublisher
	logger    *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, publisher OrderPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrderItemInput holds the parameters for an order line item.
type PlaceOrderItemInput struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
}

// PlaceOrderInput holds the parameters for placing an order.
type PlaceOrderInput struct {
	UserID   string
	Items    []PlaceOrderItemInput
	Currency string
}

// PlaceOrder creates a new order in the placed status and publishes
// order.placed to kick off the fulfillment saga.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity for product %s must be at least 1", item.ProductID))
		}
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	var total int64
	items := make([]domain.OrderItem, len(input.Items))
	for i, itemInput := range input.Items {
		items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: itemInput.ProductID,
			Name:      itemInput.Name,
			UnitPrice: itemInput.UnitPrice,
			Quantity:  itemInput.Quantity,
		}
		total += items[i].LineTotal()
	}

	order := &domain.Order{
		ID:          orderID,
		UserID:      input.UserID,
		Status:      domain.OrderStatusPlaced,
		Items:       items,
		TotalAmount: total,
		Currency:    strings.ToUpper(input.Currency),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		// The order is persisted; publishing is at-least-once and the broker
		// confirm failing here leaves the saga to be re-kicked operationally.
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetOrder retrieves an order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// ListOrders returns a filtered, paginated list of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// ConfirmOrder moves the order to confirmed when the saga succeeds. Already
// confirmed is a no-op (duplicate delivery); a cancelled order stays
// cancelled (terminal states are sticky).
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order for confirmation: %w", err)
	}

	if order.Status == domain.OrderStatusConfirmed {
		s.logger.DebugContext(ctx, "order already confirmed, skipping",
			slog.String("order_id", orderID),
		)
		return nil
	}
	if !order.CanTransitionTo(domain.OrderStatusConfirmed) {
		s.logger.WarnContext(ctx, "confirmation for terminal order ignored",
			slog.String("order_id", orderID),
			slog.String("status", order.Status),
		)
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, orderID, domain.OrderStatusConfirmed, "", ""); err != nil {
		return fmt.Errorf("confirm order: %w", err)
	}

	s.logger.InfoContext(ctx, "order confirmed", slog.String("order_id", orderID))
	return nil
}

// ApplyCancellation compensates the order when the saga fails: it sets
// status=cancelled with the reason and acting component. Already-cancelled
// orders are a no-op, and a confirmed order is never un-confirmed. A
// persistence failure is returned so the consumer runtime can retry.
func (s *OrderService) ApplyCancellation(ctx context.Context, orderID, reason, actor string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order for cancellation: %w", err)
	}

	if order.Status == domain.OrderStatusCancelled {
		s.logger.DebugContext(ctx, "order already cancelled, skipping",
			slog.String("order_id", orderID),
		)
		return nil
	}
	if !order.CanTransitionTo(domain.OrderStatusCancelled) {
		s.logger.WarnContext(ctx, "cancellation for terminal order ignored",
			slog.String("order_id", orderID),
			slog.String("status", order.Status),
			slog.String("reason", reason),
		)
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled, reason, actor); err != nil {
		return fmt.Errorf("apply cancellation: %w", err)
	}

	s.logger.InfoContext(ctx, "order cancelled",
		slog.String("order_id", orderID),
		slog.String("reason", reason),
		slog.String("actor", actor),
	)
	return nil
}

var _ OrderPublisher = (*event.Producer)(nil)
