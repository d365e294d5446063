package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 10, hour, min, 0, 0, time.UTC)
}

func TestPreference_ChannelEnabled(t *testing.T) {
	pref := &Preference{EmailEnabled: true, SMSEnabled: false, PushEnabled: true}

	assert.True(t, pref.ChannelEnabled(ChannelEmail))
	assert.False(t, pref.ChannelEnabled(ChannelSMS))
	assert.True(t, pref.ChannelEnabled(ChannelPush))
	assert.False(t, pref.ChannelEnabled("carrier-pigeon"))
}

func TestPreference_InQuietHours_SameDayWindow(t *testing.T) {
	pref := &Preference{QuietHoursStart: "13:00", QuietHoursEnd: "15:30"}

	tests := []struct {
		clock time.Time
		want  bool
	}{
		{at(12, 59), false},
		{at(13, 0), true},
		{at(14, 15), true},
		{at(15, 29), true},
		{at(15, 30), false},
		{at(20, 0), false},
	}

	for _, tt := range tests {
		got, err := pref.InQuietHours(tt.clock)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "clock %s", tt.clock.Format("15:04"))
	}
}

func TestPreference_InQuietHours_OvernightWindow(t *testing.T) {
	pref := &Preference{QuietHoursStart: "22:00", QuietHoursEnd: "07:00"}

	tests := []struct {
		clock time.Time
		want  bool
	}{
		{at(21, 59), false},
		{at(22, 0), true},
		{at(23, 45), true},
		{at(0, 30), true},
		{at(6, 59), true},
		{at(7, 0), false},
		{at(12, 0), false},
	}

	for _, tt := range tests {
		got, err := pref.InQuietHours(tt.clock)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "clock %s", tt.clock.Format("15:04"))
	}
}

func TestPreference_InQuietHours_NoWindowConfigured(t *testing.T) {
	pref := &Preference{}

	got, err := pref.InQuietHours(at(3, 0))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestPreference_InQuietHours_MalformedWindow(t *testing.T) {
	pref := &Preference{QuietHoursStart: "25:99", QuietHoursEnd: "07:00"}

	_, err := pref.InQuietHours(at(3, 0))
	require.Error(t, err)
}

func TestPreference_QuietHoursEndOn(t *testing.T) {
	pref := &Preference{QuietHoursStart: "22:00", QuietHoursEnd: "07:00"}

	// Before midnight the window ends tomorrow morning.
	end, err := pref.QuietHoursEndOn(at(23, 30))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC), end)

	// After midnight it ends the same day.
	end, err = pref.QuietHoursEndOn(at(2, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 7, 0, 0, 0, time.UTC), end)
}

func TestPreference_ValidateQuietHours(t *testing.T) {
	assert.NoError(t, (&Preference{}).ValidateQuietHours())
	assert.NoError(t, (&Preference{QuietHoursStart: "22:00", QuietHoursEnd: "07:00"}).ValidateQuietHours())
	assert.Error(t, (&Preference{QuietHoursStart: "22:00"}).ValidateQuietHours())
	assert.Error(t, (&Preference{QuietHoursStart: "bogus", QuietHoursEnd: "07:00"}).ValidateQuietHours())
}

func TestNotification_RetriesExhausted(t *testing.T) {
	n := &Notification{RetryCount: 2, MaxRetries: 3}
	assert.False(t, n.RetriesExhausted())

	n.RetryCount = 3
	assert.True(t, n.RetriesExhausted())
}

func TestIsValidChannel(t *testing.T) {
	assert.True(t, IsValidChannel(ChannelEmail))
	assert.True(t, IsValidChannel(ChannelSMS))
	assert.True(t, IsValidChannel(ChannelPush))
	assert.False(t, IsValidChannel("fax"))
}
