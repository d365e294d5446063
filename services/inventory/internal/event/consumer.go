package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/domain"
)

// Reserver attempts a stock reservation and reports the outcome as a value.
type Reserver interface {
	Reserve(ctx context.Context, orderID string, items []domain.ReservationItem) (*domain.ReservationResult, error)
}

// ResultPublisher publishes reservation outcomes.
type ResultPublisher interface {
	PublishReservationResult(ctx context.Context, correlationID string, result *domain.ReservationResult) error
}

// ReservationRequestedData is the payload of a stock.reservation_requested event.
type ReservationRequestedData struct {
	OrderID string                   `json:"order_id"`
	Items   []domain.ReservationItem `json:"items"`
}

// ConsumerHandler processes stock reservation requests. A shortfall is a
// normal outcome published as stock.reservation_failed; only infrastructure
// failures surface as handler errors (and are retried by the runtime).
type ConsumerHandler struct {
	service   Reserver
	publisher ResultPublisher
	logger    *slog.Logger
}

// NewConsumerHandler creates a handler for the inventory.reservation-requests queue.
func NewConsumerHandler(service Reserver, publisher ResultPublisher, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle processes a single reservation request.
func (h *ConsumerHandler) Handle(ctx context.Context, event *rabbitmq.Event) error {
	if event.Type != rabbitmq.EventStockReservationRequested {
		h.logger.WarnContext(ctx, "ignoring unexpected event type",
			slog.String("type", event.Type),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data ReservationRequestedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return fmt.Errorf("unmarshal reservation request payload: %w", err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("reservation request %s has no order_id", event.EventID)
	}

	result, err := h.service.Reserve(ctx, data.OrderID, data.Items)
	if err != nil {
		return fmt.Errorf("reserve stock for order %s: %w", data.OrderID, err)
	}

	if err := h.publisher.PublishReservationResult(ctx, event.CorrelationID, result); err != nil {
		return fmt.Errorf("publish reservation result for order %s: %w", data.OrderID, err)
	}

	return nil
}

// NewConsumer builds the consumer draining the inventory.reservation-requests
// queue. Handling is wrapped with event-ID deduplication: a redelivered
// request (ack lost after a successful reserve) must not decrement stock a
// second time.
func NewConsumer(client *rabbitmq.Client, store rabbitmq.IdempotencyStore, handler *ConsumerHandler, logger *slog.Logger) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(client, rabbitmq.ConsumerConfig{
		Queue:    rabbitmq.QueueInventoryReservationRequests,
		Prefetch: 10,
	}, rabbitmq.IdempotentHandler(store, handler.Handle, logger), logger)
}
