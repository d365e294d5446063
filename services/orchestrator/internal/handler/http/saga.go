package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avazquez/FulfillmentGo/pkg/httputil"
	"github.com/avazquez/FulfillmentGo/services/orchestrator/internal/repository"
)

// SagaHandler exposes read-only saga state lookups.
type SagaHandler struct {
	repo   repository.SagaRepository
	logger *slog.Logger
}

// NewSagaHandler creates a new saga HTTP handler.
func NewSagaHandler(repo repository.SagaRepository, logger *slog.Logger) *SagaHandler {
	return &SagaHandler{
		repo:   repo,
		logger: logger,
	}
}

// GetSaga handles GET /api/v1/sagas/{orderId}
func (h *SagaHandler) GetSaga(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	state, err := h.repo.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(state, ""))
}
