package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avazquez/FulfillmentGo/pkg/httputil"
	"github.com/avazquez/FulfillmentGo/pkg/pagination"
	"github.com/avazquez/FulfillmentGo/pkg/validator"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/domain"
	"github.com/avazquez/FulfillmentGo/services/notification/internal/service"
)

// NotificationHandler handles HTTP requests for notification endpoints.
type NotificationHandler struct {
	service *service.NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new notification HTTP handler.
func NewNotificationHandler(svc *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateNotificationRequest is the JSON request body for queuing a notification.
type CreateNotificationRequest struct {
	UserID      string     `json:"user_id" validate:"required"`
	Channel     string     `json:"channel" validate:"required,oneof=email sms push"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body" validate:"required"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// CreateNotification handles POST /api/v1/notifications
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail("invalid request body: "+err.Error()))
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	notification, err := h.service.CreateNotification(r.Context(), service.CreateNotificationInput{
		UserID:      req.UserID,
		Channel:     req.Channel,
		Subject:     req.Subject,
		Body:        req.Body,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.OK(notification, "notification queued"))
}

// ListUserNotifications handles GET /api/v1/notifications/user/{userId}
func (h *NotificationHandler) ListUserNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	page := pagination.FromRequest(r)

	notifications, total, err := h.service.ListUserNotifications(r.Context(), userID, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result := pagination.NewResult(notifications, int(total), page)
	httputil.WriteJSON(w, http.StatusOK, httputil.OK(result, ""))
}

// ProcessNotifications handles POST /api/v1/notifications/process, triggering
// an immediate dispatch pass outside the regular schedule. The batch window is
// controlled with take/skip query parameters.
func (h *NotificationHandler) ProcessNotifications(w http.ResponseWriter, r *http.Request) {
	sent, err := h.service.ProcessDue(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(map[string]int{"sent": sent}, "dispatch pass complete"))
}

// DisableNotification handles DELETE /api/v1/notifications/{id}
func (h *NotificationHandler) DisableNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DisableNotification(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(nil, "notification disabled"))
}

// SavePreferenceRequest is the JSON request body for storing delivery preferences.
type SavePreferenceRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	EmailEnabled    bool   `json:"email_enabled"`
	SMSEnabled      bool   `json:"sms_enabled"`
	PushEnabled     bool   `json:"push_enabled"`
	QuietHoursStart string `json:"quiet_hours_start"`
	QuietHoursEnd   string `json:"quiet_hours_end"`
}

// SavePreference handles POST /api/v1/preferences
func (h *NotificationHandler) SavePreference(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SavePreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail("invalid request body: "+err.Error()))
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	pref := &domain.Preference{
		UserID:          req.UserID,
		EmailEnabled:    req.EmailEnabled,
		SMSEnabled:      req.SMSEnabled,
		PushEnabled:     req.PushEnabled,
		QuietHoursStart: req.QuietHoursStart,
		QuietHoursEnd:   req.QuietHoursEnd,
	}

	if err := h.service.SavePreference(r.Context(), pref); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(pref, "preference saved"))
}

// GetPreference handles GET /api/v1/preferences/{userId}
func (h *NotificationHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	pref, err := h.service.GetPreference(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.OK(pref, ""))
}
