package repository

import (
	"context"

	"github.com/avazquez/FulfillmentGo/services/orchestrator/internal/saga"
)

// SagaRepository persists the durable saga-state records.
type SagaRepository interface {
	// Begin creates the saga record for a newly placed order in the
	// reservation_pending step. It returns false when a record for the order
	// already exists (duplicate order.placed delivery).
	Begin(ctx context.Context, orderID, eventID string) (bool, error)

	// Transition atomically moves the saga from fromStep to toStep. It
	// returns false when the record is not currently in fromStep (duplicate
	// or out-of-order delivery), in which case nothing was written.
	Transition(ctx context.Context, orderID, fromStep, toStep, eventID string) (bool, error)

	// Get retrieves the saga record for an order.
	Get(ctx context.Context, orderID string) (*saga.State, error)
}
