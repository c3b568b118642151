// internal/app/features/profile/handler.go
package profile

import (
	"net/http"

	profilesvc "github.com/dalemusser/robohub/internal/app/services/profile"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler owns all user profile handlers.
type Handler struct {
	Profiles *profilesvc.Service
	Log      *zap.Logger
}

// NewHandler constructs a Handler bound to the profile service and logger.
func NewHandler(svc *profilesvc.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: svc,
		Log:      logger,
	}
}

// ServeProfile handles GET /api/users/{id}/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Profiles.Get(r.Context(), auth.Actor(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": u})
}

// HandleUpdate handles PATCH /api/users/{id}/profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in profilesvc.UpdateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Profiles.Update(r.Context(), auth.Actor(r), chi.URLParam(r, "id"), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": u})
}
