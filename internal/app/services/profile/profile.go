// internal/app/services/profile/profile.go
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/authz"
	"github.com/dalemusser/robohub/internal/app/system/inputval"
	"github.com/dalemusser/robohub/internal/app/system/normalize"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UpdateInput is the editable part of a profile. Nil fields are unchanged;
// an empty image clears it.
type UpdateInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=50,personname" label:"Name"`
	Image *string `json:"image,omitempty" validate:"omitempty,max=500,httpurl" label:"Image"`
}

// Service reads and edits user profiles.
type Service struct {
	users store.Users
	log   *zap.Logger
}

// New creates a Service.
func New(users store.Users, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, log: log}
}

// Get returns the profile of userID.
func (s *Service) Get(ctx context.Context, actor *auth.SessionUser, userID string) (models.User, error) {
	if err := authz.Authorize(actor, authz.ViewProfile, authz.Target{UserID: userID}).Err(); err != nil {
		return models.User{}, err
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// Update applies in to the profile of userID.
func (s *Service) Update(ctx context.Context, actor *auth.SessionUser, userID string, in UpdateInput) (models.User, error) {
	if err := authz.Authorize(actor, authz.EditProfile, authz.Target{UserID: userID}).Err(); err != nil {
		return models.User{}, err
	}
	if in.Name != nil {
		n := normalize.Name(*in.Name)
		if n == "" {
			return models.User{}, apperr.Validation("Name is required.", map[string]string{"name": "Name is required."})
		}
		in.Name = &n
	}
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		in.Image = &img
	}
	if err := inputval.Validate(in).Err(); err != nil {
		return models.User{}, err
	}

	u, err := s.load(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Image != nil {
		u.Image = *in.Image
	}

	updated, err := s.users.Update(ctx, u)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	s.log.Info("profile updated", zap.String("user_id", userID), zap.String("actor_id", actor.ID))
	updated.PasswordHash = ""
	return updated, nil
}

func (s *Service) load(ctx context.Context, userID string) (models.User, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return models.User{}, apperr.ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return u, nil
}
