// internal/app/features/auditlog/handler.go
package auditlog

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auditlog"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/authz"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the audit trail to administrators.
type Handler struct {
	Audit *auditlog.Recorder
	Log   *zap.Logger
}

// NewHandler creates a new audit log handler.
func NewHandler(rec *auditlog.Recorder, logger *zap.Logger) *Handler {
	return &Handler{Audit: rec, Log: logger}
}

// ServeList handles GET /api/admin/audit-log?limit=.
// A missing or malformed limit selects the default page size.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if err := authz.Authorize(auth.Actor(r), authz.ViewAuditLog, authz.Target{}).Err(); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	limit, _ := strconv.Atoi(query.Get(r, "limit"))
	logs, err := h.Audit.Recent(r.Context(), limit)
	if err != nil {
		respond.Error(w, h.Log, apperr.Internal(err))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"logs": logs})
}
