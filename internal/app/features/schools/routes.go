// internal/app/features/schools/routes.go
package schools

import (
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts school onboarding. Listing and creating are public;
// verification is admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))
		pr.Patch("/{id}/verify", h.HandleVerify)
	})
	return r
}
