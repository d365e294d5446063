package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avazquez/FulfillmentGo/pkg/database"
	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
)

// PreferenceRepository implements repository.PreferenceRepository using
// PostgreSQL.
type PreferenceRepository struct {
	pool database.DBTX
}

// NewPreferenceRepository creates a new PostgreSQL-backed preference repository.
func NewPreferenceRepository(pool database.DBTX) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

// Upsert inserts or replaces the user's preference record.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *domain.Preference) error {
	query := `
		INSERT INTO notification_preferences
			(user_id, email_enabled, sms_enabled, push_enabled, quiet_hours_start, quiet_hours_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			push_enabled = EXCLUDED.push_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = EXCLUDED.updated_at`

	pref.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		pref.UserID, pref.EmailEnabled, pref.SMSEnabled, pref.PushEnabled,
		pref.QuietHoursStart, pref.QuietHoursEnd, pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// GetByUserID retrieves the user's preference record.
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID string) (*domain.Preference, error) {
	query := `
		SELECT user_id, email_enabled, sms_enabled, push_enabled, quiet_hours_start, quiet_hours_end, updated_at
		FROM notification_preferences
		WHERE user_id = $1`

	var pref domain.Preference
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&pref.UserID, &pref.EmailEnabled, &pref.SMSEnabled, &pref.PushEnabled,
		&pref.QuietHoursStart, &pref.QuietHoursEnd, &pref.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("preference", userID)
		}
		return nil, fmt.Errorf("scan preference: %w", err)
	}
	return &pref, nil
}
