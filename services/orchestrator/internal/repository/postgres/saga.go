package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/orchestrator/internal/saga"
)

// SagaRepository implements repository.SagaRepository using PostgreSQL.
type SagaRepository struct {
	pool database.DBTX
}

// NewSagaRepository creates a new PostgreSQL-backed saga repository.
func NewSagaRepository(pool database.DBTX) *SagaRepository {
	return &SagaRepository{pool: pool}
}

// Begin inserts the saga record for a new order. ON CONFLICT DO NOTHING makes
// duplicate order.placed deliveries visible as a zero row count.
func (r *SagaRepository) Begin(ctx context.Context, orderID, eventID string) (bool, error) {
	query := `
		INSERT INTO order_sagas (order_id, current_step, last_event_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, orderID, saga.StepReservationPending, eventID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert saga record: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// Transition performs the compare-and-swap: the update only applies while the
// record still sits in fromStep.
func (r *SagaRepository) Transition(ctx context.Context, orderID, fromStep, toStep, eventID string) (bool, error) {
	query := `
		UPDATE order_sagas
		SET current_step = $1, last_event_id = $2, updated_at = $3
		WHERE order_id = $4 AND current_step = $5`

	ct, err := r.pool.Exec(ctx, query, toStep, eventID, time.Now().UTC(), orderID, fromStep)
	if err != nil {
		return false, fmt.Errorf("transition saga record: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// Get retrieves the saga record for an order.
func (r *SagaRepository) Get(ctx context.Context, orderID string) (*saga.State, error) {
	query := `
		SELECT order_id, current_step, last_event_id, updated_at
		FROM order_sagas
		WHERE order_id = $1`

	var state saga.State
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&state.OrderID,
		&state.CurrentStep,
		&state.LastEventID,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("saga", orderID)
		}
		return nil, fmt.Errorf("scan saga record: %w", err)
	}

	return &state, nil
}
