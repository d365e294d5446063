package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avazquez/FulfillmentGo/pkg/httputil"
	"github.com/avazquez/FulfillmentGo/services/gateway/internal/service"
)

// SummaryHandler handles order-summary aggregation requests.
type SummaryHandler struct {
	aggregator *service.Aggregator
	logger     *slog.Logger
}

// NewSummaryHandler creates a new summary HTTP handler.
func NewSummaryHandler(aggregator *service.Aggregator, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// GetOrderSummary handles GET /order-summary/{orderId}
func (h *SummaryHandler) GetOrderSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	summary, err := h.aggregator.GetOrderSummary(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(summary, ""))
}
