package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/orchestrator/internal/saga"
)

// Source identifier for events originating from the orchestrator.
const SourceOrchestrator = "orchestrator-service"

// Producer publishes the events emitted by the saga engine.
type Producer struct {
	publisher *rabbitmq.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the orchestrator.
func NewProducer(publisher *rabbitmq.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishReservationRequested asks the inventory service to reserve stock for
// an order.
func (p *Producer) PublishReservationRequested(ctx context.Context, correlationID string, data saga.ReservationRequestedData) error {
	return p.publish(ctx, rabbitmq.ExchangeInventory, rabbitmq.EventStockReservationRequested, correlationID, data)
}

// PublishOrderConfirmed announces the successful outcome of the saga.
func (p *Producer) PublishOrderConfirmed(ctx context.Context, correlationID string, data saga.OrderConfirmedData) error {
	return p.publish(ctx, rabbitmq.ExchangeOrders, rabbitmq.EventOrderConfirmed, correlationID, data)
}

// PublishOrderCancelled announces the compensating outcome of the saga.
func (p *Producer) PublishOrderCancelled(ctx context.Context, correlationID string, data saga.OrderCancelledData) error {
	return p.publish(ctx, rabbitmq.ExchangeOrders, rabbitmq.EventOrderCancelled, correlationID, data)
}

func (p *Producer) publish(ctx context.Context, exchange, eventType, correlationID string, payload any) error {
	event, err := rabbitmq.NewEvent(eventType, correlationID, SourceOrchestrator, payload)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.publisher.Publish(ctx, exchange, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published saga event",
		slog.String("type", eventType),
		slog.String("correlation_id", correlationID),
	)
	return nil
}

var _ saga.EventPublisher = (*Producer)(nil)
