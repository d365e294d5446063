package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/order/internal/domain"
)

// Source identifier for events originating from the order service.
const SourceOrderService = "order-service"

// OrderPlacedData is the payload for an order.placed event: a full snapshot
// of the order lines so downstream services never have to call back.
type OrderPlacedData struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItemData `json:"items"`
	TotalAmount int64           `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// OrderItemData is the event payload for an order line item.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Producer publishes order domain events to the broker.
type Producer struct {
	publisher *rabbitmq.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the order service.
func NewProducer(publisher *rabbitmq.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishOrderPlaced publishes an order.placed event with the full item
// snapshot. The correlation id is the order id; every later saga event for
// this order carries it unchanged.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	data := OrderPlacedData{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}

	event, err := rabbitmq.NewEvent(rabbitmq.EventOrderPlaced, order.ID, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.publisher.Publish(ctx, rabbitmq.ExchangeOrders, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
	)

	return nil
}
