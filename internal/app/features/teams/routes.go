// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeTeam)
		pr.Patch("/{id}", h.HandleEdit)
	})
	return r
}
