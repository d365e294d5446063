package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/avazquez/FulfillmentGo/pkg/errors"
	"github.com/avazquez/FulfillmentGo/pkg/logger"
	"github.com/avazquez/FulfillmentGo/pkg/validator"
)

// Response is the uniform JSON envelope used across all service APIs:
// success flag, payload (or null), human-readable message, and error list.
type Response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// OK builds a success envelope.
func OK(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// Fail builds a failure envelope.
func Fail(message string, errs ...string) Response {
	return Response{Success: false, Message: message, Errors: errs}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a standardized failure envelope based on the error type.
// Internal exception detail never reaches the caller; 5xx errors are logged
// with the request-scoped logger (which carries the correlation id) when the
// request-logging middleware is mounted, falling back to the given logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logInternal(r, l, err)
			WriteJSON(w, appErr.Status, Fail("an internal error occurred", appErr.Code))
			return
		}
		WriteJSON(w, appErr.Status, Fail(appErr.Message, appErr.Code))
		return
	}

	status := apperrors.HTTPStatus(err)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		WriteJSON(w, status, Fail("resource not found", "NOT_FOUND"))
	case errors.Is(err, apperrors.ErrAlreadyExists):
		WriteJSON(w, status, Fail("resource already exists", "ALREADY_EXISTS"))
	case errors.Is(err, apperrors.ErrInvalidInput):
		WriteJSON(w, status, Fail(err.Error(), "INVALID_INPUT"))
	default:
		logInternal(r, l, err)
		WriteJSON(w, status, Fail("an internal error occurred", "INTERNAL_ERROR"))
	}
}

func logInternal(r *http.Request, l *slog.Logger, err error) {
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError writes a failure envelope with one entry per invalid field.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		errs := make([]string, 0, len(valErr.Errors))
		for field, msg := range valErr.Fields() {
			errs = append(errs, field+" "+msg)
		}
		WriteJSON(w, http.StatusBadRequest, Fail("request validation failed", errs...))
		return
	}

	WriteJSON(w, http.StatusBadRequest, Fail(err.Error(), "INVALID_INPUT"))
}

// ParseUUID validates that the given string is a valid UUID and returns it.
// If invalid, it writes a 400 Bad Request envelope and returns uuid.Nil plus
// false, signaling the caller to return early.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Fail("invalid UUID: "+param, "INVALID_PARAMETER"))
		return uuid.Nil, false
	}
	return id, true
}
