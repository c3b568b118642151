// internal/app/services/community/community.go
//
// Package community serves the discussion board: posts, threaded comments
// and the coach directory. Post and comment bodies are sanitized before
// they are stored.
package community

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/authz"
	"github.com/dalemusser/robohub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/robohub/internal/app/system/inputval"
	"github.com/dalemusser/robohub/internal/app/system/normalize"
	"github.com/dalemusser/robohub/internal/app/system/paging"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PostInput is the new-post form.
type PostInput struct {
	Title    string   `json:"title" validate:"required,min=3,max=100" label:"Title"`
	Content  string   `json:"content" validate:"required,min=10,max=2000" label:"Content"`
	Category string   `json:"category" validate:"required,oneof=general help showcase tutorial announcement" label:"Category"`
	Tags     []string `json:"tags,omitempty" validate:"max=5,dive,required,max=30" label:"Tags"`
}

// CommentInput is the new-comment form.
type CommentInput struct {
	PostID   string `json:"postId" validate:"required,objectid" label:"Post"`
	Content  string `json:"content" validate:"required,min=1,max=500" label:"Comment"`
	ParentID string `json:"parentId,omitempty" validate:"omitempty,objectid" label:"Parent comment"`
}

// PostThread is a post with its comments, oldest first.
type PostThread struct {
	models.Post
	Comments []models.Comment `json:"comments"`
}

// Service serves community content.
type Service struct {
	posts    store.Posts
	comments store.Comments
	users    store.Users
	tx       store.Tx
	log      *zap.Logger
}

// New creates a Service.
func New(posts store.Posts, comments store.Comments, users store.Users, tx store.Tx, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{posts: posts, comments: comments, users: users, tx: tx, log: log}
}

// ListPosts returns the newest posts.
func (s *Service) ListPosts(ctx context.Context, actor *auth.SessionUser, limit int) ([]models.Post, error) {
	if err := authz.Authorize(actor, authz.ViewCommunity, authz.Target{}).Err(); err != nil {
		return nil, err
	}
	out, err := s.posts.List(ctx, paging.Limit(limit))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// GetPost returns one post and its comments.
func (s *Service) GetPost(ctx context.Context, actor *auth.SessionUser, postID string) (PostThread, error) {
	if err := authz.Authorize(actor, authz.ViewCommunity, authz.Target{}).Err(); err != nil {
		return PostThread{}, err
	}
	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return PostThread{}, err
	}
	cs, err := s.comments.ListByPost(ctx, p.ID)
	if err != nil {
		return PostThread{}, apperr.Internal(err)
	}
	return PostThread{Post: p, Comments: cs}, nil
}

// CreatePost stores a post authored by actor.
func (s *Service) CreatePost(ctx context.Context, actor *auth.SessionUser, in PostInput) (models.Post, error) {
	if err := authz.Authorize(actor, authz.CreatePost, authz.Target{}).Err(); err != nil {
		return models.Post{}, err
	}
	in.Title = htmlsanitize.StripTags(normalize.Name(in.Title))
	in.Content = htmlsanitize.Sanitize(normalize.Text(in.Content))
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	for i := range in.Tags {
		in.Tags[i] = strings.ToLower(htmlsanitize.StripTags(in.Tags[i]))
	}

	if err := inputval.Validate(in).Err(); err != nil {
		return models.Post{}, err
	}

	author, _ := actor.ObjectID()
	p, err := s.posts.Create(ctx, models.Post{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: author,
		Category: in.Category,
		Tags:     in.Tags,
	})
	if err != nil {
		return models.Post{}, apperr.Internal(err)
	}
	s.log.Info("post created", zap.String("post_id", p.ID.Hex()), zap.String("author_id", actor.ID))
	return p, nil
}

// CreateComment stores a comment and bumps the post's comment count in
// one unit.
func (s *Service) CreateComment(ctx context.Context, actor *auth.SessionUser, in CommentInput) (models.Comment, error) {
	if err := authz.Authorize(actor, authz.CreatePost, authz.Target{}).Err(); err != nil {
		return models.Comment{}, err
	}
	in.Content = htmlsanitize.Sanitize(normalize.Text(in.Content))
	in.PostID = strings.TrimSpace(in.PostID)
	in.ParentID = strings.TrimSpace(in.ParentID)
	if in.Content == "" || in.PostID == "" {
		return models.Comment{}, apperr.MissingFields("Content and postId are required.")
	}
	if err := inputval.Validate(in).Err(); err != nil {
		return models.Comment{}, err
	}

	p, err := s.loadPost(ctx, in.PostID)
	if err != nil {
		return models.Comment{}, err
	}

	c := models.Comment{Content: in.Content, AuthorID: actorID(actor), PostID: p.ID}
	if in.ParentID != "" {
		parent, _ := primitive.ObjectIDFromHex(in.ParentID)
		ok, err := s.hasComment(ctx, p.ID, parent)
		if err != nil {
			return models.Comment{}, apperr.Internal(err)
		}
		if !ok {
			return models.Comment{}, apperr.Validation("Parent comment not found on this post.",
				map[string]string{"parentId": "Parent comment not found on this post."})
		}
		c.ParentID = &parent
	}

	var saved models.Comment
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		out, err := s.comments.Create(ctx, c)
		if err != nil {
			return err
		}
		if err := s.posts.IncrementComments(ctx, p.ID); err != nil {
			return err
		}
		saved = out
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.Comment{}, apperr.ErrPostNotFound
	}
	if err != nil {
		return models.Comment{}, apperr.Internal(err)
	}
	return saved, nil
}

// ListCoaches returns users with the coach role.
func (s *Service) ListCoaches(ctx context.Context, actor *auth.SessionUser) ([]models.User, error) {
	if err := authz.Authorize(actor, authz.ViewCoaches, authz.Target{}).Err(); err != nil {
		return nil, err
	}
	out, err := s.users.List(ctx, store.UserFilter{Role: models.RoleCoach})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range out {
		out[i].PasswordHash = ""
	}
	return out, nil
}

func (s *Service) loadPost(ctx context.Context, postID string) (models.Post, error) {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return models.Post{}, apperr.ErrPostNotFound
	}
	p, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Post{}, apperr.ErrPostNotFound
	}
	if err != nil {
		return models.Post{}, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) hasComment(ctx context.Context, postID, commentID primitive.ObjectID) (bool, error) {
	cs, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return false, err
	}
	for _, c := range cs {
		if c.ID == commentID {
			return true, nil
		}
	}
	return false, nil
}

func actorID(u *auth.SessionUser) primitive.ObjectID {
	id, _ := u.ObjectID()
	return id
}
