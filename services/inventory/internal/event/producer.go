package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/domain"
)

// Source identifier for events originating from the inventory service.
const SourceInventoryService = "inventory-service"

// ReservationSucceededData is the payload of a stock.reservation_succeeded event.
type ReservationSucceededData struct {
	OrderID string `json:"order_id"`
}

// ReservationFailedData is the payload of a stock.reservation_failed event.
type ReservationFailedData struct {
	OrderID     string              `json:"order_id"`
	FailedItems []domain.FailedItem `json:"failed_items"`
}

// Producer publishes reservation outcome events to the broker.
type Producer struct {
	publisher *rabbitmq.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the inventory service.
func NewProducer(publisher *rabbitmq.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishReservationResult publishes the outcome of a reservation attempt on
// the correlation id the request arrived with.
func (p *Producer) PublishReservationResult(ctx context.Context, correlationID string, result *domain.ReservationResult) error {
	var (
		eventType string
		payload   any
	)

	if result.Succeeded {
		eventType = rabbitmq.EventStockReservationSucceeded
		payload = ReservationSucceededData{OrderID: result.OrderID}
	} else {
		eventType = rabbitmq.EventStockReservationFailed
		payload = ReservationFailedData{
			OrderID:     result.OrderID,
			FailedItems: result.FailedItems,
		}
	}

	event, err := rabbitmq.NewEvent(eventType, correlationID, SourceInventoryService, payload)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.publisher.Publish(ctx, rabbitmq.ExchangeInventory, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published reservation result",
		slog.String("type", eventType),
		slog.String("order_id", result.OrderID),
	)

	return nil
}
