package saga

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
)

type mockSagaRepository struct {
	mock.Mock
}

func (m *mockSagaRepository) Begin(ctx context.Context, orderID, eventID string) (bool, error) {
	args := m.Called(ctx, orderID, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSagaRepository) Transition(ctx context.Context, orderID, fromStep, toStep, eventID string) (bool, error) {
	args := m.Called(ctx, orderID, fromStep, toStep, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSagaRepository) Get(ctx context.Context, orderID string) (*State, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*State), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReservationRequested(ctx context.Context, correlationID string, data ReservationRequestedData) error {
	args := m.Called(ctx, correlationID, data)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderConfirmed(ctx context.Context, correlationID string, data OrderConfirmedData) error {
	args := m.Called(ctx, correlationID, data)
	return args.Error(0)
}

func (m *mockPublisher) PublishOrderCancelled(ctx context.Context, correlationID string, data OrderCancelledData) error {
	args := m.Called(ctx, correlationID, data)
	return args.Error(0)
}

func newTestEngine() (*Engine, *mockSagaRepository, *mockPublisher) {
	repo := &mockSagaRepository{}
	pub := &mockPublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(repo, pub, log), repo, pub
}

func mustEvent(t *testing.T, eventType, correlationID string, payload any) *rabbitmq.Event {
	t.Helper()
	event, err := rabbitmq.NewEvent(eventType, correlationID, "test", payload)
	require.NoError(t, err)
	return event
}

func TestEngine_HandleOrderPlaced_StartsSagaAndRequestsReservation(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventOrderPlaced, "order-1", OrderPlacedData{
		OrderID: "order-1",
		UserID:  "user-1",
		Items: []OrderItemData{
			{ProductID: "sku-1", Name: "Widget", UnitPrice: 1500, Quantity: 2},
			{ProductID: "sku-2", Name: "Gadget", UnitPrice: 500, Quantity: 1},
		},
		TotalAmount: 3500,
		Currency:    "USD",
	})

	repo.On("Begin", mock.Anything, "order-1", event.EventID).Return(true, nil)
	pub.On("PublishReservationRequested", mock.Anything, "order-1", ReservationRequestedData{
		OrderID: "order-1",
		Items: []ReservationItemData{
			{ProductID: "sku-1", Quantity: 2},
			{ProductID: "sku-2", Quantity: 1},
		},
	}).Return(nil)

	err := engine.HandleOrderPlaced(context.Background(), event)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestEngine_HandleOrderPlaced_DuplicateDropsWithoutPublishing(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventOrderPlaced, "order-1", OrderPlacedData{OrderID: "order-1"})
	repo.On("Begin", mock.Anything, "order-1", event.EventID).Return(false, nil)

	err := engine.HandleOrderPlaced(context.Background(), event)

	require.NoError(t, err)
	pub.AssertNotCalled(t, "PublishReservationRequested", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_HandleOrderPlaced_RepositoryErrorPropagates(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventOrderPlaced, "order-1", OrderPlacedData{OrderID: "order-1"})
	repo.On("Begin", mock.Anything, "order-1", event.EventID).Return(false, errors.New("connection refused"))

	err := engine.HandleOrderPlaced(context.Background(), event)

	require.Error(t, err)
	pub.AssertNotCalled(t, "PublishReservationRequested", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_HandleOrderPlaced_MissingOrderID(t *testing.T) {
	engine, repo, _ := newTestEngine()

	event := mustEvent(t, rabbitmq.EventOrderPlaced, "corr", OrderPlacedData{})

	err := engine.HandleOrderPlaced(context.Background(), event)

	require.Error(t, err)
	repo.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_HandleReservationSucceeded_ConfirmsOrder(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventStockReservationSucceeded, "order-1", ReservationSucceededData{OrderID: "order-1"})

	repo.On("Transition", mock.Anything, "order-1", StepReservationPending, StepConfirmed, event.EventID).Return(true, nil)
	pub.On("PublishOrderConfirmed", mock.Anything, "order-1", OrderConfirmedData{OrderID: "order-1"}).Return(nil)

	err := engine.HandleReservationSucceeded(context.Background(), event)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestEngine_HandleReservationSucceeded_CASMissIsNoOp(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventStockReservationSucceeded, "order-1", ReservationSucceededData{OrderID: "order-1"})
	repo.On("Transition", mock.Anything, "order-1", StepReservationPending, StepConfirmed, event.EventID).Return(false, nil)

	err := engine.HandleReservationSucceeded(context.Background(), event)

	require.NoError(t, err)
	pub.AssertNotCalled(t, "PublishOrderConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_HandleReservationFailed_CancelsWithComposedReason(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventStockReservationFailed, "order-1", ReservationFailedData{
		OrderID: "order-1",
		FailedItems: []FailedItemData{
			{ProductID: "sku-1", Requested: 5, Available: 2, Reason: "insufficient stock"},
			{ProductID: "sku-9", Reason: "unknown product"},
		},
	})

	repo.On("Transition", mock.Anything, "order-1", StepReservationPending, StepCancelled, event.EventID).Return(true, nil)
	pub.On("PublishOrderCancelled", mock.Anything, "order-1", OrderCancelledData{
		OrderID:     "order-1",
		Reason:      "insufficient stock for product sku-1 (requested 5, available 2); unknown product sku-9",
		CancelledBy: CancelledByOrchestrator,
	}).Return(nil)

	err := engine.HandleReservationFailed(context.Background(), event)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestEngine_HandleReservationFailed_CASMissIsNoOp(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventStockReservationFailed, "order-1", ReservationFailedData{OrderID: "order-1"})
	repo.On("Transition", mock.Anything, "order-1", StepReservationPending, StepCancelled, event.EventID).Return(false, nil)

	err := engine.HandleReservationFailed(context.Background(), event)

	require.NoError(t, err)
	pub.AssertNotCalled(t, "PublishOrderCancelled", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_HandleReservationFailed_PublishErrorPropagates(t *testing.T) {
	engine, repo, pub := newTestEngine()

	event := mustEvent(t, rabbitmq.EventStockReservationFailed, "order-1", ReservationFailedData{OrderID: "order-1"})
	repo.On("Transition", mock.Anything, "order-1", StepReservationPending, StepCancelled, event.EventID).Return(true, nil)
	pub.On("PublishOrderCancelled", mock.Anything, "order-1", mock.Anything).Return(errors.New("broker gone"))

	err := engine.HandleReservationFailed(context.Background(), event)

	require.Error(t, err)
}

func TestCancellationReason(t *testing.T) {
	tests := []struct {
		name   string
		failed []FailedItemData
		want   string
	}{
		{
			name: "empty fallback",
			want: "stock reservation failed",
		},
		{
			name: "single shortfall",
			failed: []FailedItemData{
				{ProductID: "sku-1", Requested: 3, Available: 1, Reason: "insufficient stock"},
			},
			want: "insufficient stock for product sku-1 (requested 3, available 1)",
		},
		{
			name: "unknown product",
			failed: []FailedItemData{
				{ProductID: "sku-9", Reason: "unknown product"},
			},
			want: "unknown product sku-9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cancellationReason(tt.failed))
		})
	}
}
