// internal/app/features/competitions/routes.go
package competitions

import (
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the competition endpoints. Listing is public; creating and
// registering need a session, and registration is rate limited per client.
func Routes(h *Handler, sm *auth.SessionManager, registerLimit *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.HandleCreate)
		pr.With(registerLimit.Middleware(h.Log)).Post("/register", h.HandleRegister)
	})
	return r
}
