package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/service"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONSuccess sends {"status":"success", ...fields}.
func JSONSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	out := map[string]any{"status": "success"}
	for k, v := range fields {
		out[k] = v
	}
	writeJSON(w, status, out)
}

// JSONError sends {"status":"error","error":message}.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]any{"status": "error", "error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	out := map[string]any{"status": "error", "error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	writeJSON(w, status, out)
}

// ServiceError maps an error from the service layer onto a JSON response.
// Anything outside the apperr taxonomy is logged and answered with a 500.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		JSONValidationError(w, "validation failed", verr.Fields, http.StatusBadRequest)
		return
	}
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logInternal(r, err)
		JSONError(w, ErrMessageInternal, status)
		return
	}
	JSONError(w, publicMessage(err), status)
}

// StatusFor returns the HTTP status of an apperr kind, 500 for anything else.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// publicMessage is the text shown to clients for a 4xx error.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, apperr.ErrUnauthorized):
		return "authentication required"
	case errors.Is(err, apperr.ErrForbidden):
		return "you can only change your own markers"
	case errors.Is(err, apperr.ErrNotFound):
		return "not found"
	case errors.Is(err, apperr.ErrConflict):
		return "user already exists"
	}
	return "bad request"
}

func logInternal(r *http.Request, err error) {
	slog.Error("request failed",
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
