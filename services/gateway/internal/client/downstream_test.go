package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
)

func newTestDownstream(orderURL string) *Downstream {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDownstream(Config{
		OrderURL:    orderURL,
		CustomerURL: orderURL,
		ProductURL:  orderURL,
		PaymentURL:  orderURL,
	}, log)
}

func TestDownstream_GetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/order-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"id": "order-1",
				"user_id": "user-1",
				"status": "confirmed",
				"items": [{"product_id": "sku-1", "name": "Widget", "unit_price": 1500, "quantity": 2}],
				"total_amount": 3000,
				"currency": "USD"
			}
		}`))
	}))
	defer srv.Close()

	ds := newTestDownstream(srv.URL)

	order, err := ds.GetOrder(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, "confirmed", order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1500), order.Items[0].UnitPrice)
}

func TestDownstream_GetOrder_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ds := newTestDownstream(srv.URL)

	_, err := ds.GetOrder(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDownstream_GetOrder_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	ds := newTestDownstream(srv.URL)

	_, err := ds.GetOrder(context.Background(), "order-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}

func TestDownstream_GetPaymentForOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/payments/order/order-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true, "data": {"id": "pay-1", "order_id": "order-1", "status": "captured", "amount": 3000}}`))
	}))
	defer srv.Close()

	ds := newTestDownstream(srv.URL)

	payment, err := ds.GetPaymentForOrder(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "captured", payment.Status)
	assert.Equal(t, int64(3000), payment.Amount)
}
