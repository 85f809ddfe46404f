package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garnizeh/review/internal/remark"
)

// envelope is the response body shared by every remark endpoint.
type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Data     any    `json:"data,omitempty"`
	Count    *int   `json:"count,omitempty"`
	IsUnread *bool  `json:"isUnread,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeServiceError maps remark service errors onto HTTP statuses. Store
// failures are logged with their cause; the client only sees a generic
// message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, remark.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, remark.ErrNotFound):
		writeError(w, http.StatusNotFound, "submission not found")
	case errors.Is(err, remark.ErrForbidden):
		writeError(w, http.StatusForbidden, "not the recipient of this remark")
	case errors.Is(err, remark.ErrStoreUnavailable):
		logger.Error("store unavailable", slog.String("path", r.URL.Path), slog.Any("err", err))
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		logger.Error("unexpected service error", slog.String("path", r.URL.Path), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
