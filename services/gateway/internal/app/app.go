package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avazquez/FulfillmentGo/pkg/health"
	"github.com/avazquez/FulfillmentGo/services/gateway/internal/client"
	"github.com/avazquez/FulfillmentGo/services/gateway/internal/config"
	handler "github.com/avazquez/FulfillmentGo/services/gateway/internal/handler/http"
	"github.com/avazquez/FulfillmentGo/services/gateway/internal/middleware"
	"github.com/avazquez/FulfillmentGo/services/gateway/internal/service"
)

// App wires together all dependencies and runs the gateway.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	rateLimiter *middleware.RateLimiter
	httpServer  *http.Server
}

// NewApp creates a new application instance. The gateway holds no state of
// its own: no database, no broker, just downstream HTTP clients.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	downstream := client.NewDownstream(client.Config{
		OrderURL:    cfg.OrderServiceURL,
		CustomerURL: cfg.CustomerServiceURL,
		ProductURL:  cfg.ProductServiceURL,
		PaymentURL:  cfg.PaymentServiceURL,
	}, logger)

	aggregator := service.NewAggregator(downstream, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	healthHandler := health.NewHandler()

	router := handler.NewRouter(aggregator, rateLimiter, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		rateLimiter: rateLimiter,
		httpServer:  httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.rateLimiter.Stop()

	a.logger.Info("application shutdown complete")
	return nil
}
