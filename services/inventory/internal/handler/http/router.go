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
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/service"
)

// NewRouter creates a chi router with all inventory service routes registered.
func NewRouter(
	inventoryService *service.InventoryService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("inventory"))
	r.Use(middleware.Tracing("inventory"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	inventoryHandler := NewInventoryHandler(inventoryService, logger)

	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Post("/", inventoryHandler.SeedStock)
		r.Get("/{productId}", inventoryHandler.GetStock)
	})

	return r
}
