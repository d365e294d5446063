package saga

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
)

// SagaRepository persists the durable saga-state records. It mirrors the
// interface in the repository package, declared here as well because the
// repository package imports this one for the State type.
type SagaRepository interface {
	Begin(ctx context.Context, orderID, eventID string) (bool, error)
	Transition(ctx context.Context, orderID, fromStep, toStep, eventID string) (bool, error)
	Get(ctx context.Context, orderID string) (*State, error)
}

// CancelledByOrchestrator marks cancellations issued by the saga engine, as
// opposed to a user or an operator.
const CancelledByOrchestrator = "orchestrator"

// EventPublisher publishes the events the engine emits after a successful
// state transition.
type EventPublisher interface {
	PublishReservationRequested(ctx context.Context, correlationID string, data ReservationRequestedData) error
	PublishOrderConfirmed(ctx context.Context, correlationID string, data OrderConfirmedData) error
	PublishOrderCancelled(ctx context.Context, correlationID string, data OrderCancelledData) error
}

// Engine drives the order-fulfillment saga. Each handler first persists the
// state transition with a compare-and-swap and only then emits the downstream
// event, so a delivery that loses the CAS race is acknowledged without side
// effects.
type Engine struct {
	repo      SagaRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewEngine creates a saga engine.
func NewEngine(repo SagaRepository, publisher EventPublisher, logger *slog.Logger) *Engine {
	return &Engine{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleOrderPlaced starts a saga for a newly placed order and requests a
// stock reservation. A duplicate order.placed delivery finds the saga record
// already present and is dropped.
func (e *Engine) HandleOrderPlaced(ctx context.Context, event *rabbitmq.Event) error {
	var data OrderPlacedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return fmt.Errorf("unmarshal order.placed payload: %w", err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("order.placed event %s has no order_id", event.EventID)
	}

	inserted, err := e.repo.Begin(ctx, data.OrderID, event.EventID)
	if err != nil {
		return fmt.Errorf("begin saga for order %s: %w", data.OrderID, err)
	}
	if !inserted {
		e.logger.InfoContext(ctx, "saga already started, dropping duplicate order.placed",
			slog.String("order_id", data.OrderID),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	items := make([]ReservationItemData, 0, len(data.Items))
	for _, item := range data.Items {
		items = append(items, ReservationItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	request := ReservationRequestedData{OrderID: data.OrderID, Items: items}
	if err := e.publisher.PublishReservationRequested(ctx, event.CorrelationID, request); err != nil {
		return fmt.Errorf("request reservation for order %s: %w", data.OrderID, err)
	}

	e.logger.InfoContext(ctx, "saga started",
		slog.String("order_id", data.OrderID),
		slog.Int("items", len(items)),
	)
	return nil
}

// HandleReservationSucceeded confirms the order once the stock reservation
// came back successful.
func (e *Engine) HandleReservationSucceeded(ctx context.Context, event *rabbitmq.Event) error {
	var data ReservationSucceededData
	if err := event.UnmarshalPayload(&data); err != nil {
		return fmt.Errorf("unmarshal stock.reservation_succeeded payload: %w", err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("stock.reservation_succeeded event %s has no order_id", event.EventID)
	}

	moved, err := e.repo.Transition(ctx, data.OrderID, StepReservationPending, StepConfirmed, event.EventID)
	if err != nil {
		return fmt.Errorf("confirm saga for order %s: %w", data.OrderID, err)
	}
	if !moved {
		e.logSkippedTransition(ctx, data.OrderID, event, StepConfirmed)
		return nil
	}

	if err := e.publisher.PublishOrderConfirmed(ctx, event.CorrelationID, OrderConfirmedData{OrderID: data.OrderID}); err != nil {
		return fmt.Errorf("publish order.confirmed for order %s: %w", data.OrderID, err)
	}

	e.logger.InfoContext(ctx, "saga confirmed", slog.String("order_id", data.OrderID))
	return nil
}

// HandleReservationFailed cancels the order once the stock reservation came
// back with a shortfall.
func (e *Engine) HandleReservationFailed(ctx context.Context, event *rabbitmq.Event) error {
	var data ReservationFailedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return fmt.Errorf("unmarshal stock.reservation_failed payload: %w", err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("stock.reservation_failed event %s has no order_id", event.EventID)
	}

	moved, err := e.repo.Transition(ctx, data.OrderID, StepReservationPending, StepCancelled, event.EventID)
	if err != nil {
		return fmt.Errorf("cancel saga for order %s: %w", data.OrderID, err)
	}
	if !moved {
		e.logSkippedTransition(ctx, data.OrderID, event, StepCancelled)
		return nil
	}

	cancellation := OrderCancelledData{
		OrderID:     data.OrderID,
		Reason:      cancellationReason(data.FailedItems),
		CancelledBy: CancelledByOrchestrator,
	}
	if err := e.publisher.PublishOrderCancelled(ctx, event.CorrelationID, cancellation); err != nil {
		return fmt.Errorf("publish order.cancelled for order %s: %w", data.OrderID, err)
	}

	e.logger.InfoContext(ctx, "saga cancelled",
		slog.String("order_id", data.OrderID),
		slog.String("reason", cancellation.Reason),
	)
	return nil
}

func (e *Engine) logSkippedTransition(ctx context.Context, orderID string, event *rabbitmq.Event, toStep string) {
	e.logger.InfoContext(ctx, "saga not in expected step, dropping delivery",
		slog.String("order_id", orderID),
		slog.String("event_id", event.EventID),
		slog.String("event_type", event.Type),
		slog.String("attempted_step", toStep),
	)
}

// cancellationReason renders the failed line items into a human-readable
// reason carried on the order.cancelled event.
func cancellationReason(failed []FailedItemData) string {
	if len(failed) == 0 {
		return "stock reservation failed"
	}

	parts := make([]string, 0, len(failed))
	for _, item := range failed {
		switch item.Reason {
		case "unknown product":
			parts = append(parts, fmt.Sprintf("unknown product %s", item.ProductID))
		default:
			parts = append(parts, fmt.Sprintf("%s for product %s (requested %d, available %d)",
				item.Reason, item.ProductID, item.Requested, item.Available))
		}
	}
	return strings.Join(parts, "; ")
}
