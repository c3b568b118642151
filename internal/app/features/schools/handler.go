// internal/app/features/schools/handler.go
package schools

import (
	"net/http"

	schoolsvc "github.com/dalemusser/robohub/internal/app/services/schools"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/paging"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Schools *schoolsvc.Service
	Log     *zap.Logger
}

func NewHandler(svc *schoolsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Schools: svc, Log: logger}
}

// ServeList handles GET /api/schools?after=&before=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	page, err := h.Schools.List(r.Context(), query.Get(r, "before"), query.Get(r, "after"), paging.ParseLimit(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// HandleCreate handles POST /api/schools.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in schoolsvc.CreateInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	sc, err := h.Schools.Create(r.Context(), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"school": sc})
}

// HandleVerify handles PATCH /api/schools/{id}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	sc, err := h.Schools.Verify(r.Context(), auth.Actor(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"school": sc})
}
