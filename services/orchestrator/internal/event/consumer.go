package event

import (
	"context"
	"log/slog"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/orchestrator/internal/saga"
)

// SagaHandler is the subset of the saga engine the consumers dispatch to.
type SagaHandler interface {
	HandleOrderPlaced(ctx context.Context, event *rabbitmq.Event) error
	HandleReservationSucceeded(ctx context.Context, event *rabbitmq.Event) error
	HandleReservationFailed(ctx context.Context, event *rabbitmq.Event) error
}

// ConsumerHandler routes deliveries from the orchestrator queues to the saga
// engine. The routing is closed: an event type without a handler is logged
// and acknowledged rather than dead-lettered.
type ConsumerHandler struct {
	engine SagaHandler
	logger *slog.Logger
}

// NewConsumerHandler creates the dispatch handler for the orchestrator queues.
func NewConsumerHandler(engine SagaHandler, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		engine: engine,
		logger: logger,
	}
}

// Handle dispatches a single delivery by event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *rabbitmq.Event) error {
	switch event.Type {
	case rabbitmq.EventOrderPlaced:
		return h.engine.HandleOrderPlaced(ctx, event)
	case rabbitmq.EventStockReservationSucceeded:
		return h.engine.HandleReservationSucceeded(ctx, event)
	case rabbitmq.EventStockReservationFailed:
		return h.engine.HandleReservationFailed(ctx, event)
	default:
		h.logger.WarnContext(ctx, "ignoring unexpected event type",
			slog.String("type", event.Type),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// NewOrderPlacedConsumer builds the consumer draining the
// orchestrator.order-placed queue.
func NewOrderPlacedConsumer(client *rabbitmq.Client, handler *ConsumerHandler, logger *slog.Logger) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(client, rabbitmq.ConsumerConfig{
		Queue:    rabbitmq.QueueOrchestratorOrderPlaced,
		Prefetch: 10,
	}, handler.Handle, logger)
}

// NewReservationResultConsumer builds the consumer draining the
// orchestrator.reservation-results queue.
func NewReservationResultConsumer(client *rabbitmq.Client, handler *ConsumerHandler, logger *slog.Logger) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(client, rabbitmq.ConsumerConfig{
		Queue:    rabbitmq.QueueOrchestratorReservationResults,
		Prefetch: 10,
	}, handler.Handle, logger)
}

var _ SagaHandler = (*saga.Engine)(nil)
