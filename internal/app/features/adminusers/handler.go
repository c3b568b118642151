// internal/app/features/adminusers/handler.go
package adminusers

import (
	"net/http"

	"github.com/dalemusser/robohub/internal/app/services/useradmin"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Users *useradmin.Service
	Log   *zap.Logger
}

func NewHandler(svc *useradmin.Service, logger *zap.Logger) *Handler {
	return &Handler{Users: svc, Log: logger}
}

// ServeList handles GET /api/admin/users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context(), auth.Actor(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"users": users})
}

// HandleAction handles PATCH /api/admin/users with {userId, action, value}.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	var req useradmin.Request
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Users.Apply(r.Context(), auth.Actor(r), req)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": u})
}
