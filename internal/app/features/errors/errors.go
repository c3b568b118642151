// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/robohub/internal/app/system/respond"
)

// Stable codes for router-level failures.
const (
	CodeRouteNotFound    = "route_not_found"
	CodeMethodNotAllowed = "method_not_allowed"
)

// Handler answers requests no feature router claimed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound writes the JSON error envelope for an unknown path.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusNotFound, respond.ErrorBody{Error: respond.ErrorDetail{
		Code:    CodeRouteNotFound,
		Message: "No endpoint matches " + r.URL.Path + ".",
	}})
}

// MethodNotAllowed writes the JSON error envelope for a known path hit
// with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorBody{Error: respond.ErrorDetail{
		Code:    CodeMethodNotAllowed,
		Message: r.Method + " is not supported here.",
	}})
}
