// internal/app/store/store.go
//
// Package store defines the persistence contracts used by the services.
// The MongoDB implementations live in the per-collection subpackages and
// memstore provides an in-memory implementation for tests and tooling.
package store

import (
	"context"
	"errors"

	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors returned by every implementation.
var (
	ErrNotFound          = errors.New("store: not found")
	ErrDuplicate         = errors.New("store: duplicate key")
	ErrCapacity          = errors.New("store: competition is full")
	ErrAlreadyRegistered = errors.New("store: team already registered")
	ErrStale             = errors.New("store: version mismatch")
)

// Competitions persists competitions and their registered team sets.
type Competitions interface {
	Create(ctx context.Context, c models.Competition) (models.Competition, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Competition, error)
	List(ctx context.Context) ([]models.Competition, error)

	// AddTeam appends teamID to the registered set and sets current_teams to
	// the new set size in one atomic, conditional write. It fails with
	// ErrCapacity, ErrAlreadyRegistered or ErrNotFound without mutating.
	AddTeam(ctx context.Context, competitionID, teamID primitive.ObjectID) (models.Competition, error)
}

// TeamFilter narrows team listings.
type TeamFilter struct {
	SchoolID *primitive.ObjectID
}

// Teams persists team rosters.
type Teams interface {
	Create(ctx context.Context, t models.Team) (models.Team, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error)
	List(ctx context.Context, f TeamFilter) ([]models.Team, error)

	// Update replaces the mutable fields of t when the stored version equals
	// t.Version, and returns the team with its version incremented. A
	// mismatch yields ErrStale.
	Update(ctx context.Context, t models.Team) (models.Team, error)
}

// Page selects a keyset window of a name-ordered listing.
type Page struct {
	Before string // cursor of the first row of the current page
	After  string // cursor of the last row of the current page
	Limit  int
}

// Schools persists schools.
type Schools interface {
	Create(ctx context.Context, s models.School) (models.School, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.School, error)
	GetBySlug(ctx context.Context, slug string) (models.School, error)
	ExistsByNameOrAdminEmail(ctx context.Context, name, adminEmail string) (bool, error)
	List(ctx context.Context, p Page) ([]models.School, error)
	SetVerified(ctx context.Context, id primitive.ObjectID) (models.School, error)
	IncrementMembers(ctx context.Context, id primitive.ObjectID, delta int) error
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role     models.Role
	SchoolID *primitive.ObjectID
}

// Users persists accounts.
type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)

	// Update writes the mutable profile and admin-state fields of u and
	// returns the stored result.
	Update(ctx context.Context, u models.User) (models.User, error)
}

// AuditLog is the append-only audit trail.
type AuditLog interface {
	Append(ctx context.Context, e models.AuditEntry) (models.AuditEntry, error)
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// Posts persists community posts.
type Posts interface {
	Create(ctx context.Context, p models.Post) (models.Post, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error)
	List(ctx context.Context, limit int) ([]models.Post, error)
	IncrementComments(ctx context.Context, id primitive.ObjectID) error
}

// Comments persists post comments.
type Comments interface {
	Create(ctx context.Context, c models.Comment) (models.Comment, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
}

// Tx runs a function as one atomic unit against the store.
type Tx interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error

	// Active reports whether ctx belongs to a unit that will be rolled back
	// on error. Callers running without one must compensate themselves.
	Active(ctx context.Context) bool
}

// Set bundles one implementation of every contract.
type Set struct {
	Competitions Competitions
	Teams        Teams
	Schools      Schools
	Users        Users
	AuditLog     AuditLog
	Posts        Posts
	Comments     Comments
	Tx           Tx
}
