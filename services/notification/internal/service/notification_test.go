package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/pagination"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/sender"
)

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]*domain.Notification, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *mockNotificationRepository) ListDue(ctx context.Context, now time.Time, page pagination.Params) ([]*domain.Notification, error) {
	args := m.Called(ctx, now, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *mockNotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotificationRepository) Disable(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPreferenceRepository struct {
	mock.Mock
}

func (m *mockPreferenceRepository) Upsert(ctx context.Context, pref *domain.Preference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *mockPreferenceRepository) GetByUserID(ctx context.Context, userID string) (*domain.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func newTestService(snd sender.Sender, now time.Time) (*NotificationService, *mockNotificationRepository, *mockPreferenceRepository) {
	notifRepo := &mockNotificationRepository{}
	prefRepo := &mockPreferenceRepository{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewNotificationService(notifRepo, prefRepo, sender.Registry{
		Email: snd,
		SMS:   snd,
		Push:  snd,
	}, log)
	svc.now = func() time.Time { return now }

	return svc, notifRepo, prefRepo
}

func pendingNotification(id, channel string) *domain.Notification {
	return &domain.Notification{
		ID:         id,
		UserID:     "user-1",
		Channel:    channel,
		Subject:    "Order confirmed",
		Body:       "Your order has been confirmed.",
		Status:     domain.StatusPending,
		MaxRetries: domain.DefaultMaxRetries,
	}
}

func TestCreateNotification_Success(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc, notifRepo, _ := newTestService(&mockSender{}, now)

	notifRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "user-1" &&
			n.Channel == domain.ChannelEmail &&
			n.Status == domain.StatusPending &&
			n.MaxRetries == domain.DefaultMaxRetries &&
			n.ScheduledAt.Equal(now)
	})).Return(nil)

	got, err := svc.CreateNotification(context.Background(), CreateNotificationInput{
		UserID:  "user-1",
		Channel: domain.ChannelEmail,
		Subject: "Hi",
		Body:    "Hello",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	notifRepo.AssertExpectations(t)
}

func TestCreateNotification_Validation(t *testing.T) {
	svc, _, _ := newTestService(&mockSender{}, time.Now().UTC())

	tests := []struct {
		name  string
		input CreateNotificationInput
	}{
		{"missing user", CreateNotificationInput{Channel: domain.ChannelEmail, Body: "x"}},
		{"unknown channel", CreateNotificationInput{UserID: "u", Channel: "fax", Body: "x"}},
		{"missing body", CreateNotificationInput{UserID: "u", Channel: domain.ChannelSMS}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateNotification(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestProcessDue_SendsAndMarksSent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	n := pendingNotification("notif-1", domain.ChannelEmail)
	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return([]*domain.Notification{n}, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(domain.DefaultPreference("user-1"), nil)
	snd.On("Send", mock.Anything, n).Return(nil)
	notifRepo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Status == domain.StatusSent
	})).Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	snd.AssertExpectations(t)
	notifRepo.AssertExpectations(t)
}

func TestProcessDue_ChannelDisabledDropsNotification(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	n := pendingNotification("notif-1", domain.ChannelSMS)
	pref := &domain.Preference{UserID: "user-1", EmailEnabled: true, SMSEnabled: false, PushEnabled: true}

	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return([]*domain.Notification{n}, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(pref, nil)
	notifRepo.On("Disable", mock.Anything, "notif-1").Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	notifRepo.AssertExpectations(t)
}

func TestProcessDue_QuietHoursDefersDelivery(t *testing.T) {
	// 23:30 falls inside a 22:00-07:00 overnight window.
	now := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	n := pendingNotification("notif-1", domain.ChannelPush)
	pref := &domain.Preference{
		UserID: "user-1", EmailEnabled: true, SMSEnabled: true, PushEnabled: true,
		QuietHoursStart: "22:00", QuietHoursEnd: "07:00",
	}

	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return([]*domain.Notification{n}, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(pref, nil)
	notifRepo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		want := time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC)
		return n.Status == domain.StatusPending && n.ScheduledAt.Equal(want)
	})).Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	notifRepo.AssertExpectations(t)
}

func TestProcessDue_SendFailureSchedulesRetry(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	n := pendingNotification("notif-1", domain.ChannelEmail)
	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return([]*domain.Notification{n}, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(domain.DefaultPreference("user-1"), nil)
	snd.On("Send", mock.Anything, n).Return(errors.New("smtp timeout"))
	notifRepo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Status == domain.StatusFailed &&
			n.RetryCount == 1 &&
			n.ScheduledAt.Equal(now.Add(retryDelay))
	})).Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	notifRepo.AssertExpectations(t)
}

func TestProcessDue_ExhaustedRetriesMarksFailed(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	n := pendingNotification("notif-1", domain.ChannelEmail)
	n.RetryCount = domain.DefaultMaxRetries - 1

	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return([]*domain.Notification{n}, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(domain.DefaultPreference("user-1"), nil)
	snd.On("Send", mock.Anything, n).Return(errors.New("smtp timeout"))
	notifRepo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Status == domain.StatusFailed && n.RetryCount == domain.DefaultMaxRetries
	})).Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	notifRepo.AssertExpectations(t)
}

func TestProcessDue_OneFailureDoesNotAbortBatch(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	failing := pendingNotification("notif-1", domain.ChannelEmail)
	healthy := pendingNotification("notif-2", domain.ChannelEmail)

	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return([]*domain.Notification{failing, healthy}, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(domain.DefaultPreference("user-1"), nil)
	snd.On("Send", mock.Anything, failing).Return(errors.New("smtp timeout"))
	snd.On("Send", mock.Anything, healthy).Return(nil)
	notifRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	snd.AssertExpectations(t)
}

func TestProcessDue_FailedSendsMarkedFailedOthersSent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	snd := &mockSender{}
	svc, notifRepo, prefRepo := newTestService(snd, now)

	batch := make([]*domain.Notification, 0, 10)
	for i := 0; i < 10; i++ {
		batch = append(batch, pendingNotification(fmt.Sprintf("notif-%d", i), domain.ChannelEmail))
	}

	notifRepo.On("ListDue", mock.Anything, now, pagination.Params{Take: dueBatchSize}).Return(batch, nil)
	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(domain.DefaultPreference("user-1"), nil)
	snd.On("Send", mock.Anything, batch[3]).Return(errors.New("smtp timeout"))
	snd.On("Send", mock.Anything, batch[7]).Return(errors.New("smtp timeout"))
	for i, n := range batch {
		if i == 3 || i == 7 {
			continue
		}
		snd.On("Send", mock.Anything, n).Return(nil)
	}
	notifRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	sent, err := svc.ProcessDue(context.Background(), pagination.Params{Take: dueBatchSize})

	require.NoError(t, err)
	assert.Equal(t, 8, sent)
	for i, n := range batch {
		if i == 3 || i == 7 {
			assert.Equal(t, domain.StatusFailed, n.Status, "notification %d", i)
			assert.Equal(t, 1, n.RetryCount, "notification %d", i)
		} else {
			assert.Equal(t, domain.StatusSent, n.Status, "notification %d", i)
		}
	}
	snd.AssertExpectations(t)
}

func TestGetPreference_FallsBackToDefault(t *testing.T) {
	svc, _, prefRepo := newTestService(&mockSender{}, time.Now().UTC())

	prefRepo.On("GetByUserID", mock.Anything, "user-1").Return(nil, apperrors.NotFound("preference", "user-1"))

	pref, err := svc.GetPreference(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, pref.EmailEnabled)
	assert.True(t, pref.SMSEnabled)
	assert.True(t, pref.PushEnabled)
	assert.False(t, pref.HasQuietHours())
}

func TestSavePreference_RejectsMalformedQuietHours(t *testing.T) {
	svc, _, _ := newTestService(&mockSender{}, time.Now().UTC())

	err := svc.SavePreference(context.Background(), &domain.Preference{
		UserID:          "user-1",
		QuietHoursStart: "22:00",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
