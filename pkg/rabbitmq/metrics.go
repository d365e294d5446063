package rabbitmq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionReconnects counts broker connection re-establishments.
	ConnectionReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rabbitmq_connection_reconnects_total",
			Help: "Total number of RabbitMQ connection re-establishments",
		},
	)

	// MessagesReceived counts deliveries received from the broker (before processing).
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_consumer_messages_received_total",
			Help: "Total number of RabbitMQ deliveries received from the broker",
		},
		[]string{"queue"},
	)

	// MessagesProcessed counts successfully handled and acknowledged deliveries.
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_consumer_messages_processed_total",
			Help: "Total number of successfully processed RabbitMQ deliveries",
		},
		[]string{"queue"},
	)

	// MessagesFailed counts deliveries that exhausted all handler retries.
	MessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_consumer_messages_failed_total",
			Help: "Total number of RabbitMQ deliveries that failed all handler retries",
		},
		[]string{"queue"},
	)

	// MessagesDeadLettered counts deliveries rejected without requeue.
	MessagesDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_consumer_messages_dead_lettered_total",
			Help: "Total number of RabbitMQ deliveries routed to a dead-letter queue",
		},
		[]string{"queue"},
	)

	// MessagesDuplicate counts deliveries skipped by the idempotency guard.
	MessagesDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_consumer_messages_duplicate_total",
			Help: "Total number of duplicate RabbitMQ deliveries skipped by the idempotency guard",
		},
		[]string{"type"},
	)

	// ProcessingDuration observes handler execution time per delivery.
	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rabbitmq_consumer_processing_duration_seconds",
			Help:    "Duration of RabbitMQ delivery processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)

	// MessagesPublished counts confirmed publishes.
	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_publisher_messages_published_total",
			Help: "Total number of RabbitMQ messages published and confirmed",
		},
		[]string{"exchange", "routing_key"},
	)

	// PublishErrors counts publish failures (including broker nacks).
	PublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_publisher_publish_errors_total",
			Help: "Total number of RabbitMQ publish errors",
		},
		[]string{"exchange", "routing_key"},
	)

	// PublishDuration observes the duration of confirmed publishes.
	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rabbitmq_publisher_publish_duration_seconds",
			Help:    "Duration of RabbitMQ publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"exchange", "routing_key"},
	)
)
