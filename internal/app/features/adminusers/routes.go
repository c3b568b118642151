// internal/app/features/adminusers/routes.go
package adminusers

import (
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts user administration. Role checks happen in the service so
// that self-action and non-admin denials carry their own codes.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Patch("/", h.HandleAction)
	})
	return r
}
