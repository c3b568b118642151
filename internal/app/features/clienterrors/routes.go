// internal/app/features/clienterrors/routes.go
package clienterrors

import (
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts error reporting behind a per-IP limiter. Reports are
// accepted from anonymous visitors too.
func Routes(h *Handler, limit *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(limit.Middleware(h.Log))
	r.Post("/", h.HandleReport)
	return r
}
