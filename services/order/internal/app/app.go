package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	"github.com/avazquez/FulfillmentGo/pkg/health"
	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/order/internal/config"
	"github.com/avazquez/FulfillmentGo/services/order/internal/event"
	handler "github.com/avazquez/FulfillmentGo/services/order/internal/handler/http"
	"github.com/avazquez/FulfillmentGo/services/order/internal/repository/postgres"
	"github.com/avazquez/FulfillmentGo/services/order/internal/service"
)

// App wires together all dependencies and runs the order service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	broker     *rabbitmq.Client
	publisher  *rabbitmq.Publisher
	consumer   *rabbitmq.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	broker, err := rabbitmq.NewClient(ctx, rabbitmq.DefaultClientConfig(cfg.RabbitURL, "order-service"), logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	// Declare the full saga topology before anything publishes or consumes.
	if err := rabbitmq.FulfillmentTopology().Declare(broker); err != nil {
		_ = broker.Close()
		pool.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}

	publisher, err := rabbitmq.NewPublisher(broker, logger)
	if err != nil {
		_ = broker.Close()
		pool.Close()
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	repo := postgres.NewOrderRepository(pool)
	producer := event.NewProducer(publisher, logger)
	orderService := service.NewOrderService(repo, producer, logger)

	consumerHandler := event.NewConsumerHandler(orderService, logger)
	consumer := event.NewConsumer(broker, consumerHandler, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("rabbitmq", broker.Ping)

	router := handler.NewRouter(orderService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		broker:     broker,
		publisher:  publisher,
		consumer:   consumer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and the saga outcome consumer, then blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := a.consumer.Start(ctx); err != nil {
			a.logger.Error("consumer error", slog.String("error", err.Error()))
		}
	}()

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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("publisher close error", slog.String("error", err.Error()))
	}

	if err := a.broker.Close(); err != nil {
		a.logger.Error("rabbitmq close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
