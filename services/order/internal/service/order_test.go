package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/order/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/order/internal/repository"
)

// --- Mocks ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status string, reason string, actor string) error {
	args := m.Called(ctx, id, status, reason, actor)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockOrderRepository, publisher *mockPublisher) *OrderService {
	return NewOrderService(repo, publisher, newTestLogger())
}

// --- PlaceOrder ---

func TestPlaceOrder_Success(t *testing.T) {
	repo := new(mockOrderRepository)
	publisher := new(mockPublisher)
	svc := newTestService(repo, publisher)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	publisher.On("PublishOrderPlaced", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID: "user-123",
		Items: []PlaceOrderItemInput{
			{ProductID: "prod-1", Name: "Widget", UnitPrice: 1000, Quantity: 2},
			{ProductID: "prod-2", Name: "Gadget", UnitPrice: 2500, Quantity: 1},
		},
		Currency: "usd",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPlaced, order.Status)
	assert.Equal(t, int64(4500), order.TotalAmount)
	assert.Equal(t, "USD", order.Currency)
	assert.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.OrderID)
		assert.NotEmpty(t, item.ID)
	}
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	svc := newTestService(new(mockOrderRepository), new(mockPublisher))
	ctx := context.Background()

	validItems := []PlaceOrderItemInput{{ProductID: "prod-1", Name: "Widget", UnitPrice: 100, Quantity: 1}}

	tests := []struct {
		name  string
		input PlaceOrderInput
	}{
		{"missing user", PlaceOrderInput{Items: validItems, Currency: "EUR"}},
		{"no items", PlaceOrderInput{UserID: "user-1", Currency: "EUR"}},
		{"bad currency", PlaceOrderInput{UserID: "user-1", Items: validItems, Currency: "EURO"}},
		{"zero quantity", PlaceOrderInput{
			UserID:   "user-1",
			Items:    []PlaceOrderItemInput{{ProductID: "prod-1", Quantity: 0}},
			Currency: "EUR",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(ctx, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestPlaceOrder_PublishFailureDoesNotFailPlacement(t *testing.T) {
	repo := new(mockOrderRepository)
	publisher := new(mockPublisher)
	svc := newTestService(repo, publisher)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	publisher.On("PublishOrderPlaced", ctx, mock.AnythingOfType("*domain.Order")).
		Return(errors.New("broker unavailable"))

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		UserID:   "user-123",
		Items:    []PlaceOrderItemInput{{ProductID: "prod-1", Name: "Widget", UnitPrice: 1000, Quantity: 1}},
		Currency: "EUR",
	})

	require.NoError(t, err)
	assert.NotNil(t, order)
}

// --- ConfirmOrder ---

func TestConfirmOrder_FromReservationPending(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusReservationPending}, nil)
	repo.On("UpdateStatus", ctx, "order-1", domain.OrderStatusConfirmed, "", "").Return(nil)

	require.NoError(t, svc.ConfirmOrder(ctx, "order-1"))
	repo.AssertExpectations(t)
}

func TestConfirmOrder_AlreadyConfirmedIsNoOp(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusConfirmed}, nil)

	require.NoError(t, svc.ConfirmOrder(ctx, "order-1"))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmOrder_CancelledStaysCancelled(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusCancelled}, nil)

	require.NoError(t, svc.ConfirmOrder(ctx, "order-1"))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- ApplyCancellation ---

func TestApplyCancellation_SetsReasonAndActor(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusPlaced}, nil)
	repo.On("UpdateStatus", ctx, "order-1", domain.OrderStatusCancelled, "insufficient stock", "orchestrator").
		Return(nil)

	require.NoError(t, svc.ApplyCancellation(ctx, "order-1", "insufficient stock", "orchestrator"))
	repo.AssertExpectations(t)
}

func TestApplyCancellation_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusCancelled, CancelReason: "insufficient stock"}, nil)

	// Second delivery of the same cancellation: no further write.
	require.NoError(t, svc.ApplyCancellation(ctx, "order-1", "insufficient stock", "orchestrator"))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyCancellation_ConfirmedOrderIgnored(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusConfirmed}, nil)

	require.NoError(t, svc.ApplyCancellation(ctx, "order-1", "late failure", "orchestrator"))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyCancellation_PersistenceFailurePropagates(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newTestService(repo, new(mockPublisher))
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&domain.Order{ID: "order-1", Status: domain.OrderStatusPlaced}, nil)
	repo.On("UpdateStatus", ctx, "order-1", domain.OrderStatusCancelled, "reason", "orchestrator").
		Return(errors.New("connection reset"))

	err := svc.ApplyCancellation(ctx, "order-1", "reason", "orchestrator")
	require.Error(t, err)
}
