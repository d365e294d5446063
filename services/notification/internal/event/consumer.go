package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/client"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/service"
)

// OrderFetcher resolves an order to the user it belongs to.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*client.Order, error)
}

// NotificationCreator queues notifications for delivery.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, input service.CreateNotificationInput) (*domain.Notification, error)
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

// ConsumerHandler turns saga outcomes into user notifications.
type ConsumerHandler struct {
	orders  OrderFetcher
	service NotificationCreator
	logger  *slog.Logger
}

// NewConsumerHandler creates a handler for the notification.saga-outcomes queue.
func NewConsumerHandler(orders OrderFetcher, svc NotificationCreator, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		orders:  orders,
		service: svc,
		logger:  logger,
	}
}

// Handle processes a single saga outcome.
func (h *ConsumerHandler) Handle(ctx context.Context, event *rabbitmq.Event) error {
	switch event.Type {
	case rabbitmq.EventOrderConfirmed:
		var data OrderConfirmedData
		if err := event.UnmarshalPayload(&data); err != nil {
			return fmt.Errorf("unmarshal order.confirmed payload: %w", err)
		}
		return h.notify(ctx, data.OrderID,
			"Order confirmed",
			fmt.Sprintf("Good news! Your order %s has been confirmed and is being prepared.", data.OrderID),
		)

	case rabbitmq.EventOrderCancelled:
		var data OrderCancelledData
		if err := event.UnmarshalPayload(&data); err != nil {
			return fmt.Errorf("unmarshal order.cancelled payload: %w", err)
		}
		body := fmt.Sprintf("Unfortunately your order %s has been cancelled.", data.OrderID)
		if data.Reason != "" {
			body = fmt.Sprintf("%s Reason: %s.", body, data.Reason)
		}
		return h.notify(ctx, data.OrderID, "Order cancelled", body)

	default:
		h.logger.WarnContext(ctx, "ignoring unexpected event type",
			slog.String("type", event.Type),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) notify(ctx context.Context, orderID, subject, body string) error {
	if orderID == "" {
		return errors.New("saga outcome has no order_id")
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The order is gone; nothing to notify about.
			h.logger.WarnContext(ctx, "order not found, dropping notification",
				slog.String("order_id", orderID))
			return nil
		}
		return fmt.Errorf("resolve order %s: %w", orderID, err)
	}

	_, err = h.service.CreateNotification(ctx, service.CreateNotificationInput{
		UserID:  order.UserID,
		Channel: domain.ChannelEmail,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("queue notification for order %s: %w", orderID, err)
	}
	return nil
}

// NewConsumer builds the consumer draining the notification.saga-outcomes
// queue. Handling is wrapped with event-ID deduplication so a redelivered
// outcome never produces a second notification.
func NewConsumer(cl *rabbitmq.Client, store rabbitmq.IdempotencyStore, handler *ConsumerHandler, logger *slog.Logger) *rabbitmq.Consumer {
	return rabbitmq.NewConsumer(cl, rabbitmq.ConsumerConfig{
		Queue:    rabbitmq.QueueNotificationSagaOutcomes,
		Prefetch: 10,
	}, rabbitmq.IdempotentHandler(store, handler.Handle, logger), logger)
}
