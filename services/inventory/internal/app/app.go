package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	"github.com/avazquez/FulfillmentGo/pkg/health"
	"github.com/avazquez/FulfillmentGo/pkg/rabbitmq"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/config"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/event"
	handler "github.com/avazquez/FulfillmentGo/services/inventory/internal/handler/http"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/repository/postgres"
	"github.com/avazquez/FulfillmentGo/services/inventory/internal/service"
)

// idempotencyTTL bounds how long processed reservation-request event IDs are
// retained.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the inventory service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redis.Client
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

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	broker, err := rabbitmq.NewClient(ctx, rabbitmq.DefaultClientConfig(cfg.RabbitURL, "inventory-service"), logger)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	if err := rabbitmq.FulfillmentTopology().Declare(broker); err != nil {
		_ = broker.Close()
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}

	publisher, err := rabbitmq.NewPublisher(broker, logger)
	if err != nil {
		_ = broker.Close()
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	repo := postgres.NewStockRepository(pool)
	inventoryService := service.NewInventoryService(repo, pool, logger)
	producer := event.NewProducer(publisher, logger)

	idempotency := rabbitmq.NewRedisIdempotencyStore(redisClient, "inventory", idempotencyTTL)
	consumerHandler := event.NewConsumerHandler(inventoryService, producer, logger)
	consumer := event.NewConsumer(broker, idempotency, consumerHandler, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("rabbitmq", broker.Ping)

	router := handler.NewRouter(inventoryService, healthHandler, logger)

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
		redis:      redisClient,
		broker:     broker,
		publisher:  publisher,
		consumer:   consumer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and the reservation request consumer, then
// blocks until the context is canceled.
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

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
