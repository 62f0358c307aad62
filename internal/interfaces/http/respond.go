package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps engine error kinds to status codes. Anything unmatched
// is an internal error; the detail stays in the log, not the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, compliance.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()})
	case errors.Is(err, compliance.ErrDuplicateRegistration):
		writeJSON(w, http.StatusConflict, errorBody{Error: "duplicate_registration", Message: err.Error()})
	case errors.Is(err, compliance.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody{Error: "invalid_transition", Message: err.Error()})
	case errors.Is(err, compliance.ErrInvalidUpload):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_upload", Message: err.Error()})
	default:
		logging.Error(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
	}
}

func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "anonymous"
}
