package domain

import "time"

// Order status constants. Transitions only move forward through the saga;
// confirmed and cancelled are terminal.
const (
	OrderStatusPlaced             = "placed"
	OrderStatusReservationPending = "reservation_pending"
	OrderStatusConfirmed          = "confirmed"
	OrderStatusCancelled          = "cancelled"
)

// Order represents a customer order moving through the fulfillment saga.
type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items"`
	TotalAmount  int64       `json:"total_amount"`
	Currency     string      `json:"currency"`
	CancelReason string      `json:"cancel_reason,omitempty"`
	CancelledBy  string      `json:"cancelled_by,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPlaced,
		OrderStatusReservationPending,
		OrderStatusConfirmed,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. Statuses
// only move forward; terminal states allow nothing.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPlaced:             {OrderStatusReservationPending, OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusReservationPending: {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:          {},
		OrderStatusCancelled:          {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order is in a terminal state.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusConfirmed || o.Status == OrderStatusCancelled
}
