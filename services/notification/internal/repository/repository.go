package repository

import (
	"context"
	"time"

	"github.com/avazquez/FulfillmentGo/pkg/pagination"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
)

// NotificationRepository persists notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// ListByUser returns a page of the user's notifications, newest first,
	// along with the total count.
	ListByUser(ctx context.Context, userID string, page pagination.Params) ([]*domain.Notification, int64, error)
	// ListDue returns non-disabled notifications due for a delivery attempt
	// (pending, or failed with retry budget remaining) whose scheduled_at is
	// at or before now, in creation order, windowed by page.
	ListDue(ctx context.Context, now time.Time, page pagination.Params) ([]*domain.Notification, error)
	// Update writes back status, retry_count and scheduled_at.
	Update(ctx context.Context, notification *domain.Notification) error
	// Disable soft-deletes the notification so the dispatcher skips it.
	Disable(ctx context.Context, id string) error
}

// PreferenceRepository persists per-user delivery preferences.
type PreferenceRepository interface {
	Upsert(ctx context.Context, pref *domain.Preference) error
	GetByUserID(ctx context.Context, userID string) (*domain.Preference, error)
}
