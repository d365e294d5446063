package domain

import "time"

// Stock holds the on-hand quantity for a single product.
type Stock struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}
