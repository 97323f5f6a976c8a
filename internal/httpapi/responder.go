package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mirajehossain/usersvc/internal/logger"
	"github.com/mirajehossain/usersvc/internal/user"
)

type responder struct {
	log *logger.Logger
}

func (r responder) writeJSON(w http.ResponseWriter, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && r.log != nil {
		r.log.Error("failed to encode response", map[string]any{"error": err.Error()})
	}
}

func (r responder) writeData(w http.ResponseWriter, status int, data any) {
	r.writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func (r responder) writeMessage(w http.ResponseWriter, status int, message string) {
	r.writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// writeServiceError maps domain errors onto HTTP statuses: missing
// user is 404, validation is 400, anything else is a 500 with a
// generic message (details go to the log, not the client).
func (r responder) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrNotFound) {
		r.writeMessage(w, http.StatusNotFound, "user not found")
		return
	}

	var vErr *user.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(w, http.StatusBadRequest, apiResponse{
			Success: false,
			Message: "validation failed",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	if r.log != nil {
		r.log.Error("request failed", map[string]any{"error": err.Error()})
	}
	r.writeMessage(w, http.StatusInternalServerError, "internal server error")
}
