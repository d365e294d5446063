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
	gwmiddleware "github.com/avazquez/FulfillmentGo/services/gateway/internal/middleware"
	"github.com/avazquez/FulfillmentGo/services/gateway/internal/service"
)

// NewRouter creates a chi router with all gateway routes registered.
func NewRouter(
	aggregator *service.Aggregator,
	rateLimiter *gwmiddleware.RateLimiter,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("gateway"))
	r.Use(middleware.Tracing("gateway"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	summaryHandler := NewSummaryHandler(aggregator, logger)

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Handler)
		r.Get("/order-summary/{orderId}", summaryHandler.GetOrderSummary)
	})

	return r
}
