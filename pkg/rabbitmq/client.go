package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ClientConfig holds RabbitMQ connection configuration.
type ClientConfig struct {
	URL            string
	ConnectionName string
	Heartbeat      time.Duration
	DialTimeout    time.Duration
	// ReconnectMaxElapsed bounds how long a reconnect attempt keeps backing
	// off before the client gives up. Zero means retry forever.
	ReconnectMaxElapsed time.Duration
}

// DefaultClientConfig returns sensible defaults for the given broker URL.
func DefaultClientConfig(url, connectionName string) ClientConfig {
	return ClientConfig{
		URL:            url,
		ConnectionName: connectionName,
		Heartbeat:      10 * time.Second,
		DialTimeout:    30 * time.Second,
	}
}

// Client owns the process-wide AMQP connection. The connection is established
// once at startup and closed once at shutdown; everything in between
// multiplexes over channels obtained via Channel. A monitor goroutine watches
// for broker-side closes and re-dials with exponential backoff.
type Client struct {
	config ClientConfig
	logger *slog.Logger

	mu   sync.RWMutex
	conn *amqp.Connection

	closed    chan struct{}
	closeOnce sync.Once
	monitorWg sync.WaitGroup
}

// NewClient dials the broker and starts the reconnect monitor. It returns an
// error if the initial connection cannot be established within the dial
// timeout; reconnects after that are handled in the background.
func NewClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	c := &Client{
		config: cfg,
		logger: logger,
		closed: make(chan struct{}),
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	conn, err := c.dial(dialCtx)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	c.conn = conn
	c.monitorWg.Add(1)
	go c.monitor(conn)

	logger.Info("rabbitmq connected", slog.String("connection_name", cfg.ConnectionName))

	return c, nil
}

func (c *Client) dial(ctx context.Context) (*amqp.Connection, error) {
	return backoff.Retry(ctx, func() (*amqp.Connection, error) {
		conn, err := amqp.DialConfig(c.config.URL, amqp.Config{
			Heartbeat: c.config.Heartbeat,
			Properties: amqp.Table{
				"connection_name": c.config.ConnectionName,
			},
		})
		if err != nil {
			c.logger.Warn("rabbitmq dial failed, retrying", slog.String("error", err.Error()))
			return nil, err
		}
		return conn, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.config.ReconnectMaxElapsed),
	)
}

// monitor blocks on the connection's close notification and re-dials when the
// broker drops us. It exits when the client is closed deliberately.
func (c *Client) monitor(conn *amqp.Connection) {
	defer c.monitorWg.Done()

	for {
		closeErr, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok || closeErr == nil {
			// Graceful close via Close().
			return
		}

		select {
		case <-c.closed:
			return
		default:
		}

		c.logger.Error("rabbitmq connection lost, reconnecting",
			slog.String("error", closeErr.Error()),
		)

		newConn, err := c.dial(context.Background())
		if err != nil {
			c.logger.Error("rabbitmq reconnect failed, giving up",
				slog.String("error", err.Error()),
			)
			return
		}

		c.mu.Lock()
		c.conn = newConn
		c.mu.Unlock()
		conn = newConn

		ConnectionReconnects.Inc()
		c.logger.Info("rabbitmq reconnected")
	}
}

// Channel opens a new channel on the current connection. Callers own the
// returned channel and are responsible for closing it.
func (c *Client) Channel() (*amqp.Channel, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, fmt.Errorf("rabbitmq: connection is not open")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

// Ping reports whether the connection is currently open. Used by health checks.
func (c *Client) Ping(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.conn.IsClosed() {
		return fmt.Errorf("rabbitmq: connection closed")
	}
	return nil
}

// Close shuts down the connection. It is safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil && !conn.IsClosed() {
			err = conn.Close()
		}
		c.monitorWg.Wait()
	})
	return err
}
