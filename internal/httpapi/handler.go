// Package httpapi is the HTTP delivery layer over the user service:
// JSON in, enveloped JSON out, no business logic.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mirajehossain/usersvc/internal/logger"
	"github.com/mirajehossain/usersvc/internal/user"
)

type userService interface {
	Create(ctx context.Context, params user.CreateParams) (user.User, error)
	Get(ctx context.Context, id uuid.UUID) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, id uuid.UUID, params user.UpdateParams) (user.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByAgeRange(ctx context.Context, minAge, maxAge int) ([]user.User, error)
	Statistics(ctx context.Context) (user.Statistics, error)
}

type UserHandler struct {
	service   userService
	responder responder
}

func NewUserHandler(service userService, log *logger.Logger) *UserHandler {
	return &UserHandler{service: service, responder: responder{log: log}}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), req.toParams())
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusCreated, toUserDTO(created))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusOK, toUserListDTO(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request, rawID string) {
	id, ok := h.parseID(w, rawID)
	if !ok {
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusOK, toUserDTO(u))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, rawID string) {
	id, ok := h.parseID(w, rawID)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toParams())
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusOK, toUserDTO(updated))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, rawID string) {
	id, ok := h.parseID(w, rawID)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeJSON(w, http.StatusNoContent, nil)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		h.responder.writeMessage(w, http.StatusBadRequest, "username query parameter is required")
		return
	}
	u, err := h.service.FindByUsername(r.Context(), username)
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusOK, toUserDTO(u))
}

func (h *UserHandler) AgeRange(w http.ResponseWriter, r *http.Request) {
	minAge, err1 := strconv.Atoi(r.URL.Query().Get("min"))
	maxAge, err2 := strconv.Atoi(r.URL.Query().Get("max"))
	if err1 != nil || err2 != nil {
		h.responder.writeMessage(w, http.StatusBadRequest, "min and max query parameters must be integers")
		return
	}
	users, err := h.service.FindByAgeRange(r.Context(), minAge, maxAge)
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusOK, toUserListDTO(users))
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.responder.writeServiceError(w, err)
		return
	}
	h.responder.writeData(w, http.StatusOK, toStatisticsDTO(stats))
}

// Health is a liveness probe, no dependencies touched.
func (h *UserHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.responder.writeData(w, http.StatusOK, healthDTO{
		Status:    "healthy",
		Service:   "usersvc",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *UserHandler) parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.responder.writeMessage(w, http.StatusBadRequest, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}
