package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/pagination"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/repository"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/sender"
)

// retryDelay is how far a failed delivery is pushed out before its next attempt.
const retryDelay = 5 * time.Minute

// dueBatchSize caps how many notifications one dispatch pass picks up.
const dueBatchSize = 50

// NotificationService implements the notification business logic.
type NotificationService struct {
	notifications repository.NotificationRepository
	preferences   repository.PreferenceRepository
	senders       sender.Registry
	logger        *slog.Logger
	now           func() time.Time
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	notifications repository.NotificationRepository,
	preferences repository.PreferenceRepository,
	senders sender.Registry,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		preferences:   preferences,
		senders:       senders,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateNotificationInput is the input for creating a notification.
type CreateNotificationInput struct {
	UserID      string
	Channel     string
	Subject     string
	Body        string
	ScheduledAt *time.Time
}

// CreateNotification validates the input and queues a notification for delivery.
func (s *NotificationService) CreateNotification(ctx context.Context, input CreateNotificationInput) (*domain.Notification, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if !domain.IsValidChannel(input.Channel) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown channel: %s", input.Channel))
	}
	if input.Body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}

	now := s.now()
	scheduledAt := now
	if input.ScheduledAt != nil {
		scheduledAt = input.ScheduledAt.UTC()
	}

	notification := &domain.Notification{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Channel:     input.Channel,
		Subject:     input.Subject,
		Body:        input.Body,
		Status:      domain.StatusPending,
		MaxRetries:  domain.DefaultMaxRetries,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.logger.InfoContext(ctx, "notification queued",
		slog.String("notification_id", notification.ID),
		slog.String("user_id", notification.UserID),
		slog.String("channel", notification.Channel),
	)
	return notification, nil
}

// GetNotification retrieves a notification by ID.
func (s *NotificationService) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	return s.notifications.GetByID(ctx, id)
}

// ListUserNotifications returns a page of the user's notifications.
func (s *NotificationService) ListUserNotifications(ctx context.Context, userID string, page pagination.Params) ([]*domain.Notification, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("user_id is required")
	}
	return s.notifications.ListByUser(ctx, userID, page)
}

// DisableNotification soft-deletes a pending notification so it is never sent.
func (s *NotificationService) DisableNotification(ctx context.Context, id string) error {
	return s.notifications.Disable(ctx, id)
}

// SavePreference validates and stores a user's delivery preference.
func (s *NotificationService) SavePreference(ctx context.Context, pref *domain.Preference) error {
	if pref.UserID == "" {
		return apperrors.InvalidInput("user_id is required")
	}
	if err := pref.ValidateQuietHours(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return s.preferences.Upsert(ctx, pref)
}

// GetPreference retrieves a user's preference, falling back to the default
// (all channels enabled) when none is stored.
func (s *NotificationService) GetPreference(ctx context.Context, userID string) (*domain.Preference, error) {
	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.DefaultPreference(userID), nil
		}
		return nil, err
	}
	return pref, nil
}

// ProcessDue delivers one windowed batch of due notifications. A failure on
// one notification is recorded on that notification and never aborts the
// batch. It returns the number of notifications successfully sent.
func (s *NotificationService) ProcessDue(ctx context.Context, page pagination.Params) (int, error) {
	if page.Take <= 0 {
		page.Take = dueBatchSize
	}
	now := s.now()
	due, err := s.notifications.ListDue(ctx, now, page)
	if err != nil {
		return 0, fmt.Errorf("list due notifications: %w", err)
	}

	sent := 0
	for _, notification := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if s.processOne(ctx, notification, now) {
			sent++
		}
	}
	return sent, nil
}

func (s *NotificationService) processOne(ctx context.Context, n *domain.Notification, now time.Time) bool {
	log := s.logger.With(
		slog.String("notification_id", n.ID),
		slog.String("user_id", n.UserID),
		slog.String("channel", n.Channel),
	)

	pref, err := s.GetPreference(ctx, n.UserID)
	if err != nil {
		log.ErrorContext(ctx, "failed to load preference, skipping", slog.String("error", err.Error()))
		return false
	}

	if !pref.ChannelEnabled(n.Channel) {
		log.InfoContext(ctx, "channel disabled by user, dropping notification")
		if err := s.notifications.Disable(ctx, n.ID); err != nil {
			log.ErrorContext(ctx, "failed to disable notification", slog.String("error", err.Error()))
		}
		return false
	}

	quiet, err := pref.InQuietHours(now)
	if err != nil {
		log.WarnContext(ctx, "malformed quiet hours, delivering anyway", slog.String("error", err.Error()))
	} else if quiet {
		end, endErr := pref.QuietHoursEndOn(now)
		if endErr != nil {
			log.WarnContext(ctx, "cannot compute quiet hours end, delivering anyway", slog.String("error", endErr.Error()))
		} else {
			n.ScheduledAt = end
			if err := s.notifications.Update(ctx, n); err != nil {
				log.ErrorContext(ctx, "failed to defer notification", slog.String("error", err.Error()))
			} else {
				log.InfoContext(ctx, "deferred delivery to quiet hours end",
					slog.Time("scheduled_at", end))
			}
			return false
		}
	}

	snd, err := s.senders.Resolve(n.Channel)
	if err != nil {
		log.ErrorContext(ctx, "no sender for channel, dropping notification", slog.String("error", err.Error()))
		if err := s.notifications.Disable(ctx, n.ID); err != nil {
			log.ErrorContext(ctx, "failed to disable notification", slog.String("error", err.Error()))
		}
		return false
	}

	if err := snd.Send(ctx, n); err != nil {
		n.RetryCount++
		n.Status = domain.StatusFailed
		if n.RetriesExhausted() {
			log.ErrorContext(ctx, "delivery failed permanently",
				slog.Int("retry_count", n.RetryCount),
				slog.String("error", err.Error()),
			)
		} else {
			// Still failed, but ListDue picks it back up once the delay passes.
			n.ScheduledAt = now.Add(retryDelay)
			log.WarnContext(ctx, "delivery failed, will retry",
				slog.Int("retry_count", n.RetryCount),
				slog.String("error", err.Error()),
			)
		}
		if updateErr := s.notifications.Update(ctx, n); updateErr != nil {
			log.ErrorContext(ctx, "failed to record delivery failure", slog.String("error", updateErr.Error()))
		}
		return false
	}

	n.Status = domain.StatusSent
	if err := s.notifications.Update(ctx, n); err != nil {
		log.ErrorContext(ctx, "failed to mark notification sent", slog.String("error", err.Error()))
	}
	log.InfoContext(ctx, "notification sent")
	return true
}
