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
	"github.com/avazquez/FulfillmentGo/services/notification/internal/service"
)

// NewRouter creates a chi router with all notification service routes registered.
func NewRouter(
	notificationService *service.NotificationService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("notification"))
	r.Use(middleware.Tracing("notification"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	notificationHandler := NewNotificationHandler(notificationService, logger)

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Post("/", notificationHandler.CreateNotification)
		r.Post("/process", notificationHandler.ProcessNotifications)
		r.Get("/user/{userId}", notificationHandler.ListUserNotifications)
		r.Delete("/{id}", notificationHandler.DisableNotification)
	})

	r.Route("/api/v1/preferences", func(r chi.Router) {
		r.Post("/", notificationHandler.SavePreference)
		r.Get("/{userId}", notificationHandler.GetPreference)
	})

	return r
}
