package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/pagination"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
)

// NotificationRepository implements repository.NotificationRepository using
// PostgreSQL.
type NotificationRepository struct {
	pool database.DBTX
}

// NewNotificationRepository creates a new PostgreSQL-backed notification repository.
func NewNotificationRepository(pool database.DBTX) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, user_id, channel, subject, body, status, retry_count, max_retries, scheduled_at, disabled, created_at, updated_at`

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.UserID, n.Channel, n.Subject, n.Body, n.Status,
		n.RetryCount, n.MaxRetries, n.ScheduledAt, n.Disabled, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by its ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("notification", id)
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return n, nil
}

// ListByUser returns a page of the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]*domain.Notification, int64, error) {
	query := `
		SELECT ` + notificationColumns + `, COUNT(*) OVER() AS total_count
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, page.Take, page.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var (
		notifications []*domain.Notification
		total         int64
	)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Channel, &n.Subject, &n.Body, &n.Status,
			&n.RetryCount, &n.MaxRetries, &n.ScheduledAt, &n.Disabled, &n.CreatedAt, &n.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan notification row: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notification rows: %w", err)
	}

	return notifications, total, nil
}

// ListDue returns notifications that are ready for a delivery attempt:
// pending ones, plus failed ones that still have retry budget left.
func (r *NotificationRepository) ListDue(ctx context.Context, now time.Time, page pagination.Params) ([]*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE disabled = FALSE
		  AND scheduled_at <= $1
		  AND (status = $2 OR (status = $3 AND retry_count < max_retries))
		ORDER BY created_at ASC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, now, domain.StatusPending, domain.StatusFailed, page.Take, page.Skip)
	if err != nil {
		return nil, fmt.Errorf("query due notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Channel, &n.Subject, &n.Body, &n.Status,
			&n.RetryCount, &n.MaxRetries, &n.ScheduledAt, &n.Disabled, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan due notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due notifications: %w", err)
	}

	return notifications, nil
}

// Update writes back the delivery outcome fields.
func (r *NotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	query := `
		UPDATE notifications
		SET status = $1, retry_count = $2, scheduled_at = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query, n.Status, n.RetryCount, n.ScheduledAt, time.Now().UTC(), n.ID)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("notification", n.ID)
	}
	return nil
}

// Disable soft-deletes a notification.
func (r *NotificationRepository) Disable(ctx context.Context, id string) error {
	query := `UPDATE notifications SET disabled = TRUE, updated_at = $1 WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("disable notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Channel, &n.Subject, &n.Body, &n.Status,
		&n.RetryCount, &n.MaxRetries, &n.ScheduledAt, &n.Disabled, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
