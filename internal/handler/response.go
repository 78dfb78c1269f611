package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "journal entry not found with id abc123"}
//
// "error" is a stable machine-readable kind; "message" is for people.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/mood-journal/internal/apperror"
)

// maxBodyBytes bounds request bodies; journal text is at most 300 runes.
const maxBodyBytes = 64 << 10

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageResponse is returned by mutations that also carry a payload.
type MessageResponse struct {
	Message string `json:"message"`
	Entry   any    `json:"entry,omitempty"`
	User    any    `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// writeJSON sets headers and status before the body; header changes after
// the first Write are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps an apperror kind to a status code. Anything that is not an
// *apperror.AppError is a 500 with a generic message; causes never reach the
// client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status, kind := statusFor(appErr)
	message := appErr.Message
	if status == http.StatusServiceUnavailable {
		message = "storage is temporarily unavailable, try again"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: message,
		Field:   appErr.Field,
	})
}

func statusFor(appErr *apperror.AppError) (int, string) {
	switch {
	case errors.Is(appErr.Err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(appErr.Err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(appErr.Err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(appErr.Err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(appErr.Err, apperror.ErrStorage):
		return http.StatusServiceUnavailable, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a single JSON object from the body into dst. Failures
// come back as validation errors so writeError can answer 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperror.ValidationFailed("body", fmt.Sprintf("request body must be %d bytes or less", maxBodyBytes))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON")
		}
	}
	return nil
}
