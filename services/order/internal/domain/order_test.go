package domain

import "testing"

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		expect bool
	}{
		{"placed to reservation_pending", OrderStatusPlaced, OrderStatusReservationPending, true},
		{"placed to confirmed", OrderStatusPlaced, OrderStatusConfirmed, true},
		{"placed to cancelled", OrderStatusPlaced, OrderStatusCancelled, true},
		{"reservation_pending to confirmed", OrderStatusReservationPending, OrderStatusConfirmed, true},
		{"reservation_pending to cancelled", OrderStatusReservationPending, OrderStatusCancelled, true},
		{"reservation_pending back to placed", OrderStatusReservationPending, OrderStatusPlaced, false},
		{"confirmed is terminal", OrderStatusConfirmed, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusConfirmed, false},
		{"cancelled stays cancelled", OrderStatusCancelled, OrderStatusCancelled, false},
		{"unknown status", "shipped", OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			if got := o.CanTransitionTo(tt.to); got != tt.expect {
				t.Errorf("CanTransitionTo(%q) from %q = %v, want %v", tt.to, tt.from, got, tt.expect)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{OrderStatusPlaced, OrderStatusReservationPending} {
		o := &Order{Status: status}
		if o.IsTerminal() {
			t.Errorf("IsTerminal() = true for %q, want false", status)
		}
	}
	for _, status := range []string{OrderStatusConfirmed, OrderStatusCancelled} {
		o := &Order{Status: status}
		if !o.IsTerminal() {
			t.Errorf("IsTerminal() = false for %q, want true", status)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range ValidStatuses() {
		if !IsValidStatus(status) {
			t.Errorf("IsValidStatus(%q) = false, want true", status)
		}
	}
	if IsValidStatus("refunded") {
		t.Error(`IsValidStatus("refunded") = true, want false`)
	}
}

func TestOrderItemLineTotal(t *testing.T) {
	item := OrderItem{UnitPrice: 250, Quantity: 3}
	if got := item.LineTotal(); got != 750 {
		t.Errorf("LineTotal() = %d, want 750", got)
	}
}
