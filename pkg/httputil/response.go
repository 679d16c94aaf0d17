package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/insightmart/insightmart/pkg/errors"
	"github.com/insightmart/insightmart/pkg/logger"
	"github.com/insightmart/insightmart/pkg/validator"
)

// Payload holds the keys written next to "success": true in a success body.
type Payload map[string]any

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success": true, ...payload}.
func WriteSuccess(w http.ResponseWriter, status int, payload Payload) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	WriteJSON(w, status, body)
}

// WriteMessage writes a success body that carries only a message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteSuccess(w, status, Payload{"message": message})
}

// WriteError maps err to a status and writes {"success": false, "message": ...}.
// Internal errors are logged with the request-scoped logger when one is mounted,
// otherwise with fallback, and their cause is never exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Message:   "Validation error",
			Errors:    valErr.Fields(),
			RequestID: requestID,
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	message := "an internal error occurred"

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		message = appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		message = "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		message = "resource already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}

	WriteJSON(w, status, ErrorResponse{Message: message, RequestID: requestID})
}

// WriteBadRequest writes a 400 with the given message.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: message})
}

// ParseUUID validates a path or body identifier. On failure it writes
// "Invalid <what> ID format" and returns false so the caller can return early.
func ParseUUID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteBadRequest(w, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
