// internal/app/features/competitions/handler.go
package competitions

import (
	"net/http"

	compsvc "github.com/dalemusser/robohub/internal/app/services/competitions"
	"github.com/dalemusser/robohub/internal/app/services/registration"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Competitions *compsvc.Service
	Registration *registration.Service
	Log          *zap.Logger
}

func NewHandler(comps *compsvc.Service, reg *registration.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Competitions: comps,
		Registration: reg,
		Log:          logger,
	}
}

// ServeList handles GET /api/competitions.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	out, err := h.Competitions.List(r.Context())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"competitions": out})
}

// HandleCreate handles POST /api/competitions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in compsvc.CreateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Competitions.Create(r.Context(), auth.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"competition": c})
}

// HandleRegister handles POST /api/competitions/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registration.Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Registration.Register(r.Context(), auth.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"competition": c})
}
