package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Store *core.Store
}

func NewHandler(store *core.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/{userID}", h.handleGetUser)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Put("/{userID}/manager", h.handleSetManager)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to list users", requestID)
		return
	}
	api.Success(w, users, requestID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, err := h.Store.UserByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "user_failed", "failed to load user", requestID)
		return
	}
	api.Success(w, user, requestID)
}

type setManagerRequest struct {
	ManagerID string `json:"managerId"`
}

func (h *Handler) handleSetManager(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userID")

	var payload setManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	if err := h.Store.SetManager(r.Context(), userID, payload.ManagerID); err != nil {
		switch {
		case errors.Is(err, core.ErrUserNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		case errors.Is(err, core.ErrManagerCycle):
			api.Fail(w, http.StatusConflict, "manager_cycle", "assignment would create a reporting cycle", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "manager_update_failed", "failed to update manager", requestID)
		}
		return
	}
	api.Success(w, map[string]string{"userId": userID, "managerId": payload.ManagerID}, requestID)
}
