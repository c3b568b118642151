// internal/app/features/teams/handler.go
package teams

import (
	"net/http"

	"github.com/dalemusser/robohub/internal/app/services/roster"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Roster *roster.Service
	Log    *zap.Logger
}

func NewHandler(svc *roster.Service, logger *zap.Logger) *Handler {
	return &Handler{Roster: svc, Log: logger}
}

// ServeList handles GET /api/teams?schoolId=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	out, err := h.Roster.ListTeams(r.Context(), query.Get(r, "schoolId"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"teams": out})
}

// ServeTeam handles GET /api/teams/{id}.
func (h *Handler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.Roster.GetTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"team": t})
}

// HandleCreate handles POST /api/teams.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in roster.TeamInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.Roster.CreateTeam(r.Context(), auth.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"team": t})
}

// HandleEdit handles PATCH /api/teams/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var p roster.Patch
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	t, err := h.Roster.EditTeam(r.Context(), auth.Actor(r), chi.URLParam(r, "id"), p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"team": t})
}
