// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"github.com/dalemusser/robohub/internal/app/services/accounts"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accounts.Service
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(acct *accounts.Service, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   acct,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	// Rate limit by IP and by the typed email before touching the store.
	if err := h.Limiter.Check(r, req.Email); err != nil {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		respond.Error(w, h.Log, err)
		return
	}

	u, err := h.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			h.Log.Info("login rejected", zap.String("code", apperr.From(err).Code), zap.String("ip", ratelimit.ClientIP(r)))
		}
		respond.Error(w, h.Log, err)
		return
	}
	h.Limiter.ResetEmail(r.Context(), u.Email)

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		respond.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()), zap.String("role", string(u.Role)))
	respond.JSON(w, http.StatusOK, map[string]any{"user": u})
}
