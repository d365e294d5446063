package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes events on its own channel in confirm mode. Publish
// blocks until the broker acknowledges the message, so a nil return means the
// broker has taken responsibility for it. Publishers are safe for concurrent
// use; a lost channel is reopened on the next publish.
type Publisher struct {
	client *Client
	logger *slog.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

// NewPublisher creates a publisher and opens its confirm-mode channel.
func NewPublisher(client *Client, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		client: client,
		logger: logger,
	}
	if err := p.ensureChannel(); err != nil {
		return nil, err
	}
	return p, nil
}

// ensureChannel opens a new confirm-mode channel if the current one is gone.
// Callers must hold p.mu.
func (p *Publisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}

	ch, err := p.client.Channel()
	if err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("put channel in confirm mode: %w", err)
	}

	p.ch = ch
	return nil
}

// Publish sends an event to the given exchange using the event type as the
// routing key, and waits for the broker confirm. Messages are persistent.
func (p *Publisher) Publish(ctx context.Context, exchange string, event *Event) error {
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	start := time.Now()

	p.mu.Lock()
	if err := p.ensureChannel(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		exchange,
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     event.EventID,
			CorrelationId: event.CorrelationID,
			Timestamp:     event.OccurredAt,
			Type:          event.Type,
			AppId:         event.Source,
			Body:          body,
		},
	)
	p.mu.Unlock()

	if err != nil {
		PublishErrors.WithLabelValues(exchange, event.Type).Inc()
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("exchange", exchange),
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish %s to %s: %w", event.Type, exchange, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		PublishErrors.WithLabelValues(exchange, event.Type).Inc()
		return fmt.Errorf("wait for publish confirm: %w", err)
	}
	if !acked {
		PublishErrors.WithLabelValues(exchange, event.Type).Inc()
		return fmt.Errorf("publish %s to %s: broker nacked message", event.Type, exchange)
	}

	MessagesPublished.WithLabelValues(exchange, event.Type).Inc()
	PublishDuration.WithLabelValues(exchange, event.Type).Observe(time.Since(start).Seconds())

	p.logger.DebugContext(ctx, "event published",
		slog.String("exchange", exchange),
		slog.String("type", event.Type),
		slog.String("correlation_id", event.CorrelationID),
	)

	return nil
}

// Close closes the publisher's channel. The shared connection stays open.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch.Close()
	}
	return nil
}
