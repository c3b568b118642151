// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/users/{id}/profile; the handlers read {id}
// from the parent route.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Patch("/", h.HandleUpdate)
	return r
}
