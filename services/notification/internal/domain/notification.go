package domain

import "time"

// Notification delivery channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// Notification statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// DefaultMaxRetries is applied when a notification is created without an
// explicit retry budget.
const DefaultMaxRetries = 3

// Notification is a message queued for delivery to a user over one channel.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Channel     string    `json:"channel"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	RetryCount  int       `json:"retry_count"`
	MaxRetries  int       `json:"max_retries"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsValidChannel reports whether the given string is a known channel.
func IsValidChannel(channel string) bool {
	switch channel {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// RetriesExhausted reports whether the notification has used up its retry
// budget.
func (n *Notification) RetriesExhausted() bool {
	return n.RetryCount >= n.MaxRetries
}
