package domain

import (
	"fmt"
	"time"
)

// Preference holds a user's per-channel delivery settings and an optional
// quiet-hours window during which nothing is delivered. Quiet hours are
// expressed as "HH:MM" wall-clock times and may wrap past midnight
// (e.g. 22:00 to 07:00).
type Preference struct {
	UserID          string    `json:"user_id"`
	EmailEnabled    bool      `json:"email_enabled"`
	SMSEnabled      bool      `json:"sms_enabled"`
	PushEnabled     bool      `json:"push_enabled"`
	QuietHoursStart string    `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string    `json:"quiet_hours_end,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultPreference is used for users who never stored a preference: all
// channels on, no quiet hours.
func DefaultPreference(userID string) *Preference {
	return &Preference{
		UserID:       userID,
		EmailEnabled: true,
		SMSEnabled:   true,
		PushEnabled:  true,
	}
}

// ChannelEnabled reports whether the user accepts delivery on the channel.
func (p *Preference) ChannelEnabled(channel string) bool {
	switch channel {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelPush:
		return p.PushEnabled
	}
	return false
}

// HasQuietHours reports whether a quiet-hours window is configured.
func (p *Preference) HasQuietHours() bool {
	return p.QuietHoursStart != "" && p.QuietHoursEnd != ""
}

// InQuietHours reports whether t falls inside the quiet-hours window. A
// window whose end precedes its start wraps past midnight.
func (p *Preference) InQuietHours(t time.Time) (bool, error) {
	if !p.HasQuietHours() {
		return false, nil
	}

	start, err := minutesOfDay(p.QuietHoursStart)
	if err != nil {
		return false, fmt.Errorf("quiet hours start: %w", err)
	}
	end, err := minutesOfDay(p.QuietHoursEnd)
	if err != nil {
		return false, fmt.Errorf("quiet hours end: %w", err)
	}

	now := t.Hour()*60 + t.Minute()
	if start <= end {
		return now >= start && now < end, nil
	}
	// Overnight window, e.g. 22:00-07:00.
	return now >= start || now < end, nil
}

// QuietHoursEndOn returns the next moment at or after t when the quiet-hours
// window ends. Call only when t is inside the window.
func (p *Preference) QuietHoursEndOn(t time.Time) (time.Time, error) {
	end, err := minutesOfDay(p.QuietHoursEnd)
	if err != nil {
		return time.Time{}, fmt.Errorf("quiet hours end: %w", err)
	}

	endToday := time.Date(t.Year(), t.Month(), t.Day(), end/60, end%60, 0, 0, t.Location())
	if endToday.Before(t) {
		endToday = endToday.AddDate(0, 0, 1)
	}
	return endToday, nil
}

// ValidateQuietHours checks the configured window parses as HH:MM.
func (p *Preference) ValidateQuietHours() error {
	if p.QuietHoursStart == "" && p.QuietHoursEnd == "" {
		return nil
	}
	if p.QuietHoursStart == "" || p.QuietHoursEnd == "" {
		return fmt.Errorf("quiet hours require both start and end")
	}
	if _, err := minutesOfDay(p.QuietHoursStart); err != nil {
		return fmt.Errorf("quiet hours start: %w", err)
	}
	if _, err := minutesOfDay(p.QuietHoursEnd); err != nil {
		return fmt.Errorf("quiet hours end: %w", err)
	}
	return nil
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}
