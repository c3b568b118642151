// internal/app/features/community/handler.go
package community

import (
	"net/http"

	communitysvc "github.com/dalemusser/robohub/internal/app/services/community"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/paging"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Community *communitysvc.Service
	Log       *zap.Logger
}

func NewHandler(svc *communitysvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Community: svc, Log: logger}
}

// ServePosts handles GET /api/community/posts?limit=.
func (h *Handler) ServePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Community.ListPosts(r.Context(), auth.Actor(r), paging.ParseLimit(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// ServePost handles GET /api/community/posts/{id}.
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	thread, err := h.Community.GetPost(r.Context(), auth.Actor(r), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"post": thread})
}

// HandleCreatePost handles POST /api/community/posts.
func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in communitysvc.PostInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p, err := h.Community.CreatePost(r.Context(), auth.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"post": p})
}

// HandleCreateComment handles POST /api/community/comments.
func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in communitysvc.CommentInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Community.CreateComment(r.Context(), auth.Actor(r), in)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"comment": c})
}

// ServeCoaches handles GET /api/coaches.
func (h *Handler) ServeCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.Community.ListCoaches(r.Context(), auth.Actor(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"coaches": coaches})
}
