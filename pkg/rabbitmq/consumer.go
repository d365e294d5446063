package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/avazquez/FulfillmentGo/pkg/logger"
)

// maxHandlerRetries is the number of in-process attempts a handler gets before
// the delivery is rejected without requeue and dead-lettered to the DLQ.
const maxHandlerRetries = 3

// resubscribeDelay is how long the consumer waits before reopening a channel
// after losing its delivery stream.
const resubscribeDelay = 2 * time.Second

// Handler processes a single event. Returning nil acknowledges the delivery;
// returning an error triggers the in-process retry cycle.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds per-queue consumer configuration.
type ConsumerConfig struct {
	Queue    string
	Prefetch int
	// Tag identifies the consumer on the broker; defaults to the queue name.
	Tag string
}

// Consumer runs a single goroutine draining one queue. Deliveries are
// processed strictly one at a time per consumer (prefetch bounds how many the
// broker pushes ahead). Channel loss triggers resubscription on the shared
// connection.
type Consumer struct {
	client  *Client
	config  ConsumerConfig
	handler Handler
	logger  *slog.Logger
}

// NewConsumer creates a consumer for a queue. The queue must already be
// declared; see Topology.Declare.
func NewConsumer(client *Client, cfg ConsumerConfig, handler Handler, log *slog.Logger) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	if cfg.Tag == "" {
		cfg.Tag = cfg.Queue
	}

	return &Consumer{
		client:  client,
		config:  cfg,
		handler: handler,
		logger:  log.With(slog.String("queue", cfg.Queue)),
	}
}

// Start consumes deliveries until the context is canceled. It blocks, so run
// it in its own goroutine. On channel loss it waits briefly and resubscribes.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")

	for {
		if err := c.consume(ctx); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return nil
			}
			c.logger.Error("consume loop ended, resubscribing",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping")
			return nil
		case <-time.After(resubscribeDelay):
		}
	}
}

// consume opens a channel, subscribes, and drains deliveries until the
// channel dies or the context is canceled.
func (c *Consumer) consume(ctx context.Context) error {
	ch, err := c.client.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.config.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx,
		c.config.Queue,
		c.config.Tag,
		false, // auto-ack: manual acks only
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.config.Queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for %s", c.config.Queue)
			}
			c.processDelivery(ctx, delivery)
		}
	}
}

// processDelivery gives the handler up to maxHandlerRetries attempts with a
// short backoff between them, then rejects without requeue so the broker
// dead-letters the message. Each delivery gets a fresh scope: its own
// correlation-enriched logger and panic recovery.
func (c *Consumer) processDelivery(ctx context.Context, delivery amqp.Delivery) {
	MessagesReceived.WithLabelValues(c.config.Queue).Inc()
	start := time.Now()

	event, err := UnmarshalEvent(delivery.Body)
	if err != nil {
		c.logger.Error("failed to unmarshal event, dead-lettering",
			slog.String("error", err.Error()),
		)
		c.reject(delivery)
		return
	}

	msgCtx := logger.WithCorrelationID(ctx, event.CorrelationID)
	log := c.logger.With(
		slog.String("event_id", event.EventID),
		slog.String("type", event.Type),
		slog.String("correlation_id", event.CorrelationID),
	)

	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.safeHandle(msgCtx, event)
		if lastErr == nil {
			break
		}

		log.Warn("handler failed",
			slog.String("error", lastErr.Error()),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", maxHandlerRetries),
		)

		if attempt < maxHandlerRetries {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				// Shutting down mid-retry: leave the message unacked so the
				// broker redelivers it.
				return
			case <-time.After(backoff):
			}
		}
	}

	if lastErr != nil {
		log.Error("handler failed after all retries, dead-lettering",
			slog.String("error", lastErr.Error()),
			slog.Int("retries", maxHandlerRetries),
		)
		MessagesFailed.WithLabelValues(c.config.Queue).Inc()
		c.reject(delivery)
		return
	}

	if err := delivery.Ack(false); err != nil {
		log.Error("failed to ack delivery", slog.String("error", err.Error()))
		return
	}

	MessagesProcessed.WithLabelValues(c.config.Queue).Inc()
	ProcessingDuration.WithLabelValues(c.config.Queue).Observe(time.Since(start).Seconds())
}

// safeHandle invokes the handler with panic recovery, converting panics into
// errors so a misbehaving handler cannot take down the consumer goroutine.
func (c *Consumer) safeHandle(ctx context.Context, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return c.handler(ctx, event)
}

// reject nacks the delivery without requeue, routing it to the queue's DLQ.
func (c *Consumer) reject(delivery amqp.Delivery) {
	if err := delivery.Nack(false, false); err != nil {
		c.logger.Error("failed to nack delivery", slog.String("error", err.Error()))
		return
	}
	MessagesDeadLettered.WithLabelValues(c.config.Queue).Inc()
}
