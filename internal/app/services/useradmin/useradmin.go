// internal/app/services/useradmin/useradmin.go
//
// Package useradmin applies admin lifecycle actions to user accounts. Each
// action and its audit entry are written as one unit: if the audit entry
// cannot be stored the change to the user is rolled back and the action
// fails.
package useradmin

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auditlog"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/authz"
	"github.com/dalemusser/robohub/internal/app/system/metrics"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Lifecycle actions.
const (
	ActionVerify     = "verify"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionChangeRole = "changeRole"
)

// Request is the body of an admin action.
type Request struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// Service applies admin actions.
type Service struct {
	users store.Users
	tx    store.Tx
	audit *auditlog.Recorder
	log   *zap.Logger
}

// New creates a Service.
func New(users store.Users, tx store.Tx, audit *auditlog.Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, tx: tx, audit: audit, log: log}
}

// Apply performs req on behalf of actor and returns the updated user.
// verify is idempotent but is audited on every call.
func (s *Service) Apply(ctx context.Context, actor *auth.SessionUser, req Request) (models.User, error) {
	if actor == nil {
		return models.User{}, apperr.Unauthorized("")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Action = strings.TrimSpace(req.Action)
	if req.UserID == "" || req.Action == "" {
		return models.User{}, apperr.MissingFields("userId and action are required.")
	}
	if err := authz.Authorize(actor, authz.ManageUser, authz.Target{UserID: req.UserID}).Err(); err != nil {
		return models.User{}, err
	}

	var role models.Role
	switch req.Action {
	case ActionVerify, ActionActivate, ActionDeactivate:
	case ActionChangeRole:
		r, ok := models.ParseRole(req.Value)
		if !ok {
			return models.User{}, apperr.Validation("Role must be one of student, parent, coach, school-admin or admin.",
				map[string]string{"value": "Role must be one of student, parent, coach, school-admin or admin."})
		}
		role = r
	default:
		return models.User{}, apperr.Validation("Unknown action.", map[string]string{"action": "Action must be verify, activate, deactivate or changeRole."})
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return models.User{}, apperr.ErrUserNotFound
	}
	adminID, _ := actor.ObjectID()

	var updated models.User
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		prev, err := s.users.GetByID(ctx, targetID)
		if err != nil {
			return err
		}

		next := prev
		details := ""
		switch req.Action {
		case ActionVerify:
			next.Verified = true
		case ActionActivate:
			next.IsActive = true
		case ActionDeactivate:
			next.IsActive = false
		case ActionChangeRole:
			next.Role = role
			details = "New role: " + string(role)
		}

		u, err := s.users.Update(ctx, next)
		if err != nil {
			return err
		}

		_, err = s.audit.Record(ctx,
			auditlog.Actor{ID: adminID, Email: actor.Email},
			req.Action,
			auditlog.Target{ID: u.ID, Email: u.Email},
			details)
		if err != nil {
			if !s.tx.Active(ctx) {
				s.compensate(ctx, prev)
			}
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, apperr.ErrUserNotFound
		}
		return models.User{}, apperr.Internal(err)
	}

	metrics.AdminAction(req.Action)
	s.log.Info("admin action applied",
		zap.String("action", req.Action),
		zap.String("admin_id", actor.ID),
		zap.String("target_user_id", req.UserID))
	updated.PasswordHash = ""
	return updated, nil
}

// compensate restores prev when the store could not roll the unit back.
func (s *Service) compensate(ctx context.Context, prev models.User) {
	if _, err := s.users.Update(ctx, prev); err != nil {
		s.log.Error("failed to restore user after audit failure",
			zap.String("user_id", prev.ID.Hex()),
			zap.Error(err))
	}
}

// ListUsers returns every account ordered by name, for admins only.
func (s *Service) ListUsers(ctx context.Context, actor *auth.SessionUser) ([]models.User, error) {
	if err := authz.Authorize(actor, authz.ListUsers, authz.Target{}).Err(); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, store.UserFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
