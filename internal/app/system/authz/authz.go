// internal/app/system/authz/authz.go
//
// Package authz is the authorization gate: it maps an actor's role and
// identity to an allow/deny decision for an action on a target.
package authz

import (
	"strings"

	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action names a gated operation.
type Action string

const (
	ManageUser        Action = "user.manage" // verify, activate, deactivate, changeRole
	ViewAuditLog      Action = "audit.view"
	RegisterTeam      Action = "competition.register"
	ViewCommunity     Action = "community.view"
	ViewCoaches       Action = "coaches.view"
	ViewProfile       Action = "profile.view"
	EditProfile       Action = "profile.edit"
	ManageTeam        Action = "team.manage"
	CreateCompetition Action = "competition.create"
	VerifySchool      Action = "school.verify"
	ListUsers         Action = "user.list"
	CreatePost        Action = "community.post"
)

// Target identifies what an action is applied to. Unused fields stay empty.
type Target struct {
	UserID   string // hex id of the user acted upon
	SchoolID string // hex id of the owning school
}

// Decision is the gate's verdict. Code and Reason are set on denial.
type Decision struct {
	Allowed      bool
	Unauthorized bool // no identity, as opposed to insufficient privilege
	Code         string
	Reason       string
}

// Err converts a denial into an *apperr.Error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Unauthorized {
		return apperr.Unauthorized(d.Reason)
	}
	return apperr.Forbidden(d.Code, d.Reason)
}

// sameID reports whether a and b are hex forms of the same ObjectID. Hex
// decoding ignores letter case, so string equality is not enough.
func sameID(a, b string) bool {
	ida, err := primitive.ObjectIDFromHex(strings.TrimSpace(a))
	if err != nil {
		return false
	}
	idb, err := primitive.ObjectIDFromHex(strings.TrimSpace(b))
	return err == nil && ida == idb
}

func allow() Decision { return Decision{Allowed: true} }

func deny(code, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Authorize evaluates the policy table for actor performing action on target.
func Authorize(actor *auth.SessionUser, action Action, target Target) Decision {
	if actor == nil || actor.ID == "" {
		return Decision{Unauthorized: true, Code: apperr.CodeUnauthorized, Reason: "Authentication required."}
	}

	switch action {
	case ManageUser:
		if actor.Role != models.RoleAdmin {
			return deny(apperr.CodeForbidden, "Only admins can manage users.")
		}
		if sameID(target.UserID, actor.ID) {
			return deny(apperr.CodeSelfAction, "Admins cannot perform this action on their own account.")
		}
		return allow()

	case ViewAuditLog, VerifySchool, ListUsers:
		if actor.Role != models.RoleAdmin {
			return deny(apperr.CodeForbidden, "Admin access required.")
		}
		return allow()

	case RegisterTeam:
		if actor.Role != models.RoleSchoolAdmin {
			return deny(apperr.CodeForbidden, "Only school admins can register teams.")
		}
		if !sameID(actor.SchoolID, target.SchoolID) {
			return deny(apperr.CodeForbidden, "You can only register teams for your own school.")
		}
		return allow()

	case ViewCommunity, ViewCoaches, CreateCompetition:
		if !actor.HasRole(models.RoleAdmin, models.RoleSchoolAdmin) {
			return deny(apperr.CodeForbidden, "Admin or school admin access required.")
		}
		return allow()

	case ViewProfile, EditProfile:
		if sameID(target.UserID, actor.ID) || actor.HasRole(models.RoleAdmin, models.RoleSchoolAdmin) {
			return allow()
		}
		return deny(apperr.CodeForbidden, "You can only access your own profile.")

	case ManageTeam:
		if actor.Role == models.RoleAdmin {
			return allow()
		}
		if actor.Role == models.RoleSchoolAdmin && sameID(actor.SchoolID, target.SchoolID) {
			return allow()
		}
		return deny(apperr.CodeForbidden, "You can only manage teams of your own school.")

	case CreatePost:
		return allow()
	}

	return deny(apperr.CodeForbidden, "Action not permitted.")
}
