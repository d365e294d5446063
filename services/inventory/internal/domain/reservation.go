package domain

// Shortfall reasons reported on failed reservations.
const (
	FailReasonInsufficientStock = "insufficient stock"
	FailReasonUnknownProduct    = "unknown product"
)

// ReservationItem is a single requested line of a stock reservation.
type ReservationItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// FailedItem describes one line that could not be reserved.
type FailedItem struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

// ReservationResult is the outcome of an all-or-nothing reservation attempt.
// A business failure (shortfall) is a value, not an error: the saga needs the
// full list of failed items to explain the cancellation.
type ReservationResult struct {
	OrderID     string       `json:"order_id"`
	Succeeded   bool         `json:"succeeded"`
	FailedItems []FailedItem `json:"failed_items,omitempty"`
}
