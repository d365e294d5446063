// Package main implements a standalone bootstrap script that creates the
// per-service databases' schema and seeds the inventory service with initial
// stock. Services manage no schema themselves; run this once against a fresh
// PostgreSQL instance before starting them.
//
// Run: go run scripts/initdb/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dbURL(name string) string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "fulfillment")
	pass := getEnv("POSTGRES_PASSWORD", "fulfillment_secret")
	ssl := getEnv("POSTGRES_SSL_MODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
}

var orderSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id            UUID PRIMARY KEY,
		user_id       UUID NOT NULL,
		status        TEXT NOT NULL,
		total_amount  BIGINT NOT NULL,
		currency      TEXT NOT NULL,
		cancel_reason TEXT,
		cancelled_by  TEXT,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         UUID PRIMARY KEY,
		order_id   UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		unit_price BIGINT NOT NULL,
		quantity   INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
}

var inventorySchema = []string{
	`CREATE TABLE IF NOT EXISTS stock (
		product_id TEXT PRIMARY KEY,
		quantity   INT NOT NULL CHECK (quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

var sagaSchema = []string{
	`CREATE TABLE IF NOT EXISTS order_sagas (
		order_id      UUID PRIMARY KEY,
		current_step  TEXT NOT NULL,
		last_event_id TEXT NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
}

var notificationSchema = []string{
	`CREATE TABLE IF NOT EXISTS notifications (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL,
		channel      TEXT NOT NULL,
		subject      TEXT NOT NULL,
		body         TEXT NOT NULL,
		status       TEXT NOT NULL,
		retry_count  INT NOT NULL DEFAULT 0,
		max_retries  INT NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		disabled     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_due ON notifications (created_at) WHERE disabled = FALSE AND status IN ('pending', 'failed')`,
	`CREATE TABLE IF NOT EXISTS notification_preferences (
		user_id           UUID PRIMARY KEY,
		email_enabled     BOOLEAN NOT NULL DEFAULT TRUE,
		sms_enabled       BOOLEAN NOT NULL DEFAULT TRUE,
		push_enabled      BOOLEAN NOT NULL DEFAULT TRUE,
		quiet_hours_start TEXT NOT NULL DEFAULT '',
		quiet_hours_end   TEXT NOT NULL DEFAULT '',
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
}

// seedStock gives each demo product an initial quantity so a freshly started
// system can reserve stock immediately.
var seedStock = map[string]int{
	"sku-widget":    120,
	"sku-gadget":    80,
	"sku-doohickey": 45,
	"sku-gizmo":     12,
}

func applySchema(ctx context.Context, dbName string, statements []string) error {
	pool, err := pgxpool.New(ctx, dbURL(dbName))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", dbName, err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", dbName, err)
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema to %s: %w", dbName, err)
		}
	}
	log.Printf("Schema applied to %s.", dbName)
	return nil
}

func seedInventory(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, dbURL(getEnv("INVENTORY_DB_NAME", "inventory_db")))
	if err != nil {
		return fmt.Errorf("connect to inventory: %w", err)
	}
	defer pool.Close()

	for productID, qty := range seedStock {
		_, err := pool.Exec(ctx, `
			INSERT INTO stock (product_id, quantity, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (product_id) DO NOTHING`,
			productID, qty,
		)
		if err != nil {
			return fmt.Errorf("seed stock %s: %w", productID, err)
		}
	}
	log.Printf("Seeded %d stock rows.", len(seedStock))
	return nil
}

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[initdb] ")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	targets := []struct {
		db         string
		statements []string
	}{
		{getEnv("ORDER_DB_NAME", "order_db"), orderSchema},
		{getEnv("INVENTORY_DB_NAME", "inventory_db"), inventorySchema},
		{getEnv("ORCHESTRATOR_DB_NAME", "saga_db"), sagaSchema},
		{getEnv("NOTIFICATION_DB_NAME", "notification_db"), notificationSchema},
	}

	for _, t := range targets {
		if err := applySchema(ctx, t.db, t.statements); err != nil {
			log.Fatalf("%v", err)
		}
	}

	if getEnv("SKIP_SEED", "") == "" {
		if err := seedInventory(ctx); err != nil {
			log.Fatalf("%v", err)
		}
	}

	log.Println("Done.")
}
