package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
)

// OrderStatusUpdater applies saga outcomes to the order aggregate.
type OrderStatusUpdater interface {
	ConfirmOrder(ctx context.Context, orderID string) error
	ApplyCancellation(ctx context.Context, orderID, reason, actor string) error
}

// OrderConfirmedData is the payload of an order.confirmed event.
type OrderConfirmedData struct {
	OrderID string `json:"order_id"`
}

// OrderCancelledData is the payload of an order.cancelled event.
type OrderCancelledData struct {
	OrderID     string `json:"order_id"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

// ConsumerHandler routes saga outcome events to the order service.
type ConsumerHandler struct {
	service OrderStatusUpdater
	logger  *slog.Logger
}

// NewConsumerHandler creates a handler for the order.saga-outcomes queue.
func NewConsumerHandler(service OrderStatusUpdater, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		service: service,
		logger:  logger,
	}
}

// Handle dispatches a saga outcome event by type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *rabbitmq.Event) error {
	switch event.Type {
	case rabbitmq.EventOrderConfirmed:
		return h.handleConfirmed(ctx, event)
	case rabbitmq.EventOrderCancelled:
		return h.handleCancelled(ctx, event)
	default:
		// Unknown types on this queue are acked and dropped, not retried.
		h.logger.WarnContext(ctx, "ignoring unexpected event type",
			slog.String("type", event.Type),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleConfirmed(ctx context.Context, event *rabbitmq.Event) error {
	var data OrderConfirmedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return fmt.Errorf("unmarshal order.confirmed payload: %w", err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("order.confirmed event %s has no order_id", event.EventID)
	}

	return h.service.ConfirmOrder(ctx, data.OrderID)
}

func (h *ConsumerHandler) handleCancelled(ctx context.Context, event *rabbitmq.Event) error {
	var data OrderCancelledData
	if err := event.UnmarshalPayload(&data); err != nil {
		return fmt.Errorf("unmarshal order.cancelled payload: %w", err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("order.cancelled event %s has no order_id", event.EventID)
	}

	return h.service.ApplyCancellation(ctx, data.OrderID, data.Reason, data.CancelledBy)
}

// NewConsumer builds the consumer draining the order.saga-outcomes queue.
func NewConsumer(client *rabbitmq.Client, handler *ConsumerHandler, logger *slog.Logger) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(client, rabbitmq.ConsumerConfig{
		Queue:    rabbitmq.QueueOrderSagaOutcomes,
		Prefetch: 10,
	}, handler.Handle, logger)
}
