package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avazquez/FulfillmentGo/pkg/health"
	"github.com/avazquez/FulfillmentGo/pkg/middleware"
	"github.com/avazquez/FulfillmentGo/services/orchestrator/internal/repository"
)

// NewRouter creates a chi router for the orchestrator. The service is driven
// by the broker; HTTP exposes health, metrics and a read-only saga lookup for
// operators.
func NewRouter(
	repo repository.SagaRepository,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("orchestrator"))
	r.Use(middleware.Tracing("orchestrator"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	sagaHandler := NewSagaHandler(repo, logger)
	r.Get("/api/v1/sagas/{orderId}", sagaHandler.GetSaga)

	return r
}
