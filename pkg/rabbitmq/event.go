package rabbitmq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types used across the fulfillment saga. The event type doubles as the
// AMQP routing key, so consumers bind queues directly on these names.
const (
	EventOrderPlaced               = "order.placed"
	EventOrderConfirmed            = "order.confirmed"
	EventOrderCancelled            = "order.cancelled"
	EventStockReservationRequested = "stock.reservation_requested"
	EventStockReservationSucceeded = "stock.reservation_succeeded"
	EventStockReservationFailed    = "stock.reservation_failed"
)

// Event is the standard envelope wrapping every message on the broker.
// CorrelationID carries the order ID for the fulfillment saga family and is
// preserved byte-for-byte across every hop.
type Event struct {
	EventID       string          `json:"event_id"`
	Type          string          `json:"type"`
	CorrelationID string          `json:"correlation_id"`
	OccurredAt    time.Time       `json:"occurred_at_utc"`
	Source        string          `json:"source"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEvent creates a new event with a generated ID and current UTC timestamp.
func NewEvent(eventType, correlationID, source string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:       uuid.New().String(),
		Type:          eventType,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
		Source:        source,
		Payload:       data,
	}, nil
}

// Marshal serializes the event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent deserializes an event from JSON bytes.
func UnmarshalEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UnmarshalPayload deserializes the event payload into the given target.
func (e *Event) UnmarshalPayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}
