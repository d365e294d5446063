package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeAcknowledger records the outcome of a delivery.
type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func makeDelivery(t *testing.T, ack *fakeAcknowledger, event *Event) amqp.Delivery {
	t.Helper()
	body, err := event.Marshal()
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         body,
	}
}

func newTestConsumer(handler Handler) *Consumer {
	return NewConsumer(nil, ConsumerConfig{Queue: "test.queue", Prefetch: 1}, handler, testLogger())
}

func TestProcessDelivery_AcksOnSuccess(t *testing.T) {
	var got *Event
	consumer := newTestConsumer(func(_ context.Context, event *Event) error {
		got = event
		return nil
	})

	event, err := NewEvent(EventOrderPlaced, "ord-1", "order-service", map[string]string{"order_id": "ord-1"})
	if err != nil {
		t.Fatalf("NewEvent() returned error: %v", err)
	}

	ack := &fakeAcknowledger{}
	consumer.processDelivery(context.Background(), makeDelivery(t, ack, event))

	if !ack.acked {
		t.Error("delivery not acked after successful handling")
	}
	if ack.nacked {
		t.Error("delivery nacked after successful handling")
	}
	if got == nil || got.EventID != event.EventID {
		t.Error("handler did not receive the decoded event")
	}
}

func TestProcessDelivery_RetriesThenDeadLetters(t *testing.T) {
	attempts := 0
	consumer := newTestConsumer(func(_ context.Context, _ *Event) error {
		attempts++
		return errors.New("handler failure")
	})

	event, err := NewEvent(EventStockReservationRequested, "ord-2", "orchestrator", nil)
	if err != nil {
		t.Fatalf("NewEvent() returned error: %v", err)
	}

	ack := &fakeAcknowledger{}
	consumer.processDelivery(context.Background(), makeDelivery(t, ack, event))

	if attempts != maxHandlerRetries {
		t.Errorf("handler attempted %d times, want %d", attempts, maxHandlerRetries)
	}
	if !ack.nacked {
		t.Error("delivery not nacked after exhausting retries")
	}
	if ack.requeued {
		t.Error("delivery requeued, want requeue=false so it dead-letters")
	}
	if ack.acked {
		t.Error("delivery acked despite handler failure")
	}
}

func TestProcessDelivery_SucceedsAfterRetry(t *testing.T) {
	attempts := 0
	consumer := newTestConsumer(func(_ context.Context, _ *Event) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient failure")
		}
		return nil
	})

	event, err := NewEvent(EventStockReservationSucceeded, "ord-3", "inventory-service", nil)
	if err != nil {
		t.Fatalf("NewEvent() returned error: %v", err)
	}

	ack := &fakeAcknowledger{}
	consumer.processDelivery(context.Background(), makeDelivery(t, ack, event))

	if attempts != 2 {
		t.Errorf("handler attempted %d times, want 2", attempts)
	}
	if !ack.acked {
		t.Error("delivery not acked after successful retry")
	}
	if ack.nacked {
		t.Error("delivery nacked despite eventual success")
	}
}

func TestProcessDelivery_MalformedBodyDeadLetters(t *testing.T) {
	called := false
	consumer := newTestConsumer(func(_ context.Context, _ *Event) error {
		called = true
		return nil
	})

	ack := &fakeAcknowledger{}
	consumer.processDelivery(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         []byte("{not json"),
	})

	if called {
		t.Error("handler called for malformed body")
	}
	if !ack.nacked || ack.requeued {
		t.Error("malformed delivery not dead-lettered (want nack with requeue=false)")
	}
}

func TestProcessDelivery_PanicRecovered(t *testing.T) {
	consumer := newTestConsumer(func(_ context.Context, _ *Event) error {
		panic("handler exploded")
	})

	event, err := NewEvent(EventOrderCancelled, "ord-4", "orchestrator", nil)
	if err != nil {
		t.Fatalf("NewEvent() returned error: %v", err)
	}

	ack := &fakeAcknowledger{}
	// Must not propagate the panic.
	consumer.processDelivery(context.Background(), makeDelivery(t, ack, event))

	if !ack.nacked || ack.requeued {
		t.Error("panicking handler's delivery not dead-lettered")
	}
}
