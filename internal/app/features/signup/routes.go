// internal/app/features/signup/routes.go
package signup

import (
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts sign-up behind a per-IP limiter.
func Routes(h *Handler, limit *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(limit.Middleware(h.Log))
	r.Post("/", h.HandleSignup)
	return r
}
