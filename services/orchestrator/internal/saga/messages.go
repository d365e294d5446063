package saga

// OrderItemData is a line item as carried by an order.placed event.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// OrderPlacedData is the payload of an order.placed event.
type OrderPlacedData struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItemData `json:"items"`
	TotalAmount int64           `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// ReservationItemData identifies a product and quantity to reserve.
type ReservationItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ReservationRequestedData is the payload of a stock.reservation_requested event.
type ReservationRequestedData struct {
	OrderID string                `json:"order_id"`
	Items   []ReservationItemData `json:"items"`
}

// ReservationSucceededData is the payload of a stock.reservation_succeeded event.
type ReservationSucceededData struct {
	OrderID string `json:"order_id"`
}

// FailedItemData describes one line item that could not be reserved.
type FailedItemData struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

// ReservationFailedData is the payload of a stock.reservation_failed event.
type ReservationFailedData struct {
	OrderID     string           `json:"order_id"`
	FailedItems []FailedItemData `json:"failed_items"`
}

// OrderConfirmedData is the payload of an order.confirmed event.
type OrderConfirmedData struct {
	OrderID string `json:"order_id"`
}

// OrderCancelledData is the payload of an order.cancelled event.
type OrderCancelledData struct {
	OrderID     string `json:"order_id"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}
