// internal/app/features/signup/handler.go
package signup

import (
	"net/http"

	"github.com/dalemusser/robohub/internal/app/services/accounts"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accounts.Service
	Log      *zap.Logger
}

func NewHandler(acct *accounts.Service, logger *zap.Logger) *Handler {
	return &Handler{Accounts: acct, Log: logger}
}

// HandleSignup handles POST /api/auth/signup. New accounts start
// unverified and are not signed in.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in accounts.SignupInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Accounts.Signup(r.Context(), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"user": u})
}
