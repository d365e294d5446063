package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange and queue names for the fulfillment saga.
const (
	ExchangeOrders     = "fulfillment.orders"
	ExchangeInventory  = "fulfillment.inventory"
	ExchangeDeadLetter = "fulfillment.dlx"

	QueueOrchestratorOrderPlaced        = "orchestrator.order-placed"
	QueueOrchestratorReservationResults = "orchestrator.reservation-results"
	QueueInventoryReservationRequests   = "inventory.reservation-requests"
	QueueOrderSagaOutcomes              = "order.saga-outcomes"
	QueueNotificationSagaOutcomes       = "notification.saga-outcomes"
)

// ExchangeSpec declares a single exchange.
type ExchangeSpec struct {
	Name string
	Kind string // "topic", "direct", "fanout"
}

// QueueSpec declares a durable queue, its bindings, and its paired dead-letter
// queue. Rejected messages (requeue=false) are routed by the dead-letter
// exchange to "<queue>.dlq".
type QueueSpec struct {
	Name     string
	Exchange string
	// BindingKeys are the routing keys bound from Exchange to this queue.
	BindingKeys []string
}

// DLQName returns the name of the dead-letter queue paired with q.
func (q QueueSpec) DLQName() string {
	return q.Name + ".dlq"
}

// Topology is the full set of broker resources a service depends on. Declare
// is run synchronously at startup, before any consumer starts; declaring the
// same topology twice is a no-op, while conflicting parameters fail fast.
type Topology struct {
	Exchanges []ExchangeSpec
	Queues    []QueueSpec
}

// FulfillmentTopology returns the complete topology for the order fulfillment
// saga. Every service declares the whole thing so startup order does not
// matter.
func FulfillmentTopology() Topology {
	return Topology{
		Exchanges: []ExchangeSpec{
			{Name: ExchangeOrders, Kind: "topic"},
			{Name: ExchangeInventory, Kind: "topic"},
			{Name: ExchangeDeadLetter, Kind: "direct"},
		},
		Queues: []QueueSpec{
			{
				Name:        QueueOrchestratorOrderPlaced,
				Exchange:    ExchangeOrders,
				BindingKeys: []string{EventOrderPlaced},
			},
			{
				Name:        QueueOrchestratorReservationResults,
				Exchange:    ExchangeInventory,
				BindingKeys: []string{EventStockReservationSucceeded, EventStockReservationFailed},
			},
			{
				Name:        QueueInventoryReservationRequests,
				Exchange:    ExchangeInventory,
				BindingKeys: []string{EventStockReservationRequested},
			},
			{
				Name:        QueueOrderSagaOutcomes,
				Exchange:    ExchangeOrders,
				BindingKeys: []string{EventOrderConfirmed, EventOrderCancelled},
			},
			{
				Name:        QueueNotificationSagaOutcomes,
				Exchange:    ExchangeOrders,
				BindingKeys: []string{EventOrderConfirmed, EventOrderCancelled},
			},
		},
	}
}

// Declare creates the exchanges, queues, bindings, and dead-letter pairs on
// the broker. It opens and closes its own channel.
func (t Topology) Declare(client *Client) error {
	ch, err := client.Channel()
	if err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	defer func() { _ = ch.Close() }()

	for _, ex := range t.Exchanges {
		if err := ch.ExchangeDeclare(
			ex.Name,
			ex.Kind,
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}

	for _, q := range t.Queues {
		// Dead-letter queue first, so the main queue never dead-letters into
		// the void.
		dlq := q.DLQName()
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", dlq, err)
		}
		if err := ch.QueueBind(dlq, dlq, ExchangeDeadLetter, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", dlq, err)
		}

		args := amqp.Table{
			"x-dead-letter-exchange":    ExchangeDeadLetter,
			"x-dead-letter-routing-key": dlq,
		}
		if _, err := ch.QueueDeclare(q.Name, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}

		for _, key := range q.BindingKeys {
			if err := ch.QueueBind(q.Name, key, q.Exchange, false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s with key %s: %w", q.Name, q.Exchange, key, err)
			}
		}
	}

	return nil
}
