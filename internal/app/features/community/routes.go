// internal/app/features/community/routes.go
package community

import (
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the discussion board (typically at "/api/community").
// Comment creation is rate limited per client.
func Routes(h *Handler, sm *auth.SessionManager, commentLimit *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/posts", h.ServePosts)
		pr.Post("/posts", h.HandleCreatePost)
		pr.Get("/posts/{id}", h.ServePost)
		pr.With(commentLimit.Middleware(h.Log)).Post("/comments", h.HandleCreateComment)
	})
	return r
}

// CoachRoutes mounts the coach directory (typically at "/api/coaches").
func CoachRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeCoaches)
	return r
}
