package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/pagination"
	"github.com/avazquez/FulfillmentGo/services/order/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/order/internal/repository"
)

func newTestRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewOrderRepository(mock)
	return repo, mock
}

func sampleOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:          "3f7f6a2e-0000-4000-8000-000000000001",
		UserID:      "user-001",
		Status:      domain.OrderStatusPlaced,
		TotalAmount: 10500,
		Currency:    "EUR",
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []domain.OrderItem{
			{
				ID:        "item-001",
				OrderID:   "3f7f6a2e-0000-4000-8000-000000000001",
				ProductID: "prod-001",
				Name:      "Widget",
				UnitPrice: 5000,
				Quantity:  1,
			},
			{
				ID:        "item-002",
				OrderID:   "3f7f6a2e-0000-4000-8000-000000000001",
				ProductID: "prod-002",
				Name:      "Gadget",
				UnitPrice: 2750,
				Quantity:  2,
			},
		},
	}
}

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.Status, o.TotalAmount, o.Currency,
			o.CancelReason, o.CancelledBy, o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	for _, item := range o.Items {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(
				item.ID, item.OrderID, item.ProductID,
				item.Name, item.UnitPrice, item.Quantity,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	mock.ExpectCommit()

	err := repo.Create(context.Background(), o)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_InsertFails(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.Status, o.TotalAmount, o.Currency,
			o.CancelReason, o.CancelledBy, o.CreatedAt, o.UpdatedAt,
		).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()
	itemsJSON, err := json.Marshal(o.Items)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "status", "total_amount", "currency",
		"cancel_reason", "cancelled_by", "created_at", "updated_at", "items",
	}).AddRow(
		o.ID, o.UserID, o.Status, o.TotalAmount, o.Currency,
		"", "", o.CreatedAt, o.UpdatedAt, itemsJSON,
	)

	mock.ExpectQuery("SELECT").WithArgs(o.ID).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, domain.OrderStatusPlaced, got.Status)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "prod-002", got.Items[1].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT").
		WithArgs("missing-id").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_FiltersAndCount(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()
	userID := o.UserID
	status := domain.OrderStatusPlaced

	orderRows := pgxmock.NewRows([]string{
		"id", "user_id", "status", "total_amount", "currency",
		"cancel_reason", "cancelled_by", "created_at", "updated_at", "total_count",
	}).AddRow(
		o.ID, o.UserID, o.Status, o.TotalAmount, o.Currency,
		"", "", o.CreatedAt, o.UpdatedAt, 7,
	)

	mock.ExpectQuery("SELECT").
		WithArgs(userID, status, 20, 0).
		WillReturnRows(orderRows)

	itemRows := pgxmock.NewRows([]string{
		"id", "order_id", "product_id", "name", "unit_price", "quantity",
	}).AddRow("item-001", o.ID, "prod-001", "Widget", int64(5000), 1)

	mock.ExpectQuery("SELECT").
		WithArgs([]string{o.ID}).
		WillReturnRows(itemRows)

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{
		UserID: &userID,
		Status: &status,
		Page:   pagination.Default(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.OrderStatusCancelled, "insufficient stock", "orchestrator", pgxmock.AnyArg(), "order-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "order-001", domain.OrderStatusCancelled, "insufficient stock", "orchestrator")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE orders").
		WithArgs(domain.OrderStatusConfirmed, "", "", pgxmock.AnyArg(), "missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing-id", domain.OrderStatusConfirmed, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
