package sender

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
)

// Sender delivers a notification over one channel.
type Sender interface {
	Send(ctx context.Context, notification *domain.Notification) error
}

// Registry maps each channel to its sender. The set of channels is fixed, so
// resolution is a struct lookup rather than a dynamic registration table.
type Registry struct {
	Email Sender
	SMS   Sender
	Push  Sender
}

// Resolve returns the sender for the given channel.
func (r Registry) Resolve(channel string) (Sender, error) {
	switch channel {
	case domain.ChannelEmail:
		return r.Email, nil
	case domain.ChannelSMS:
		return r.SMS, nil
	case domain.ChannelPush:
		return r.Push, nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("unknown channel: %s", channel))
}

// LogSender writes deliveries to the log instead of an external provider.
// It stands in for real email/SMS/push integrations in development.
type LogSender struct {
	channel string
	logger  *slog.Logger
}

// NewLogSender creates a log-backed sender for the given channel.
func NewLogSender(channel string, logger *slog.Logger) *LogSender {
	return &LogSender{
		channel: channel,
		logger:  logger,
	}
}

// Send logs the notification as delivered.
func (s *LogSender) Send(ctx context.Context, n *domain.Notification) error {
	s.logger.InfoContext(ctx, "delivering notification",
		slog.String("channel", s.channel),
		slog.String("notification_id", n.ID),
		slog.String("user_id", n.UserID),
		slog.String("subject", n.Subject),
	)
	return nil
}

// NewLogRegistry wires all three channels to log-backed senders.
func NewLogRegistry(logger *slog.Logger) Registry {
	return Registry{
		Email: NewLogSender(domain.ChannelEmail, logger),
		SMS:   NewLogSender(domain.ChannelSMS, logger),
		Push:  NewLogSender(domain.ChannelPush, logger),
	}
}
