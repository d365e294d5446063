package saga

import "time"

// Saga step constants. A saga record is created in reservation_pending and
// moves exactly once to confirmed or cancelled.
const (
	StepReservationPending = "reservation_pending"
	StepConfirmed          = "confirmed"
	StepCancelled          = "cancelled"
)

// State is the durable per-order saga record. Every transition is a
// compare-and-swap on the expected current step, which makes duplicate and
// out-of-order deliveries harmless no-ops.
type State struct {
	OrderID     string    `json:"order_id"`
	CurrentStep string    `json:"current_step"`
	LastEventID string    `json:"last_event_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}
