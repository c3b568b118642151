package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data through any
// store.Set, so the same fixtures serve MongoDB and in-memory tests.
type Fixtures struct {
	set store.Set
	t   *testing.T
}

// NewFixtures creates a new Fixtures instance over set.
func NewFixtures(t *testing.T, set store.Set) *Fixtures {
	t.Helper()
	return &Fixtures{set: set, t: t}
}

// Set returns the underlying stores for direct access in tests.
func (f *Fixtures) Set() store.Set {
	return f.set
}

// CreateSchool creates a verified school with a slug derived from name.
func (f *Fixtures) CreateSchool(ctx context.Context, name string) models.School {
	f.t.Helper()

	s, err := f.set.Schools.Create(ctx, models.School{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Slug:       slug.Make(name),
		AdminEmail: slug.Make(name) + "-admin@school.test",
		IsVerified: true,
	})
	if err != nil {
		f.t.Fatalf("create school %q: %v", name, err)
	}
	return s
}

// CreateUser creates an active, verified user.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role, schoolID *primitive.ObjectID) models.User {
	f.t.Helper()

	u, err := f.set.Users.Create(ctx, models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    email,
		Role:     role,
		SchoolID: schoolID,
		Verified: true,
		IsActive: true,
	})
	if err != nil {
		f.t.Fatalf("create user %q: %v", email, err)
	}
	return u
}

// CreateAdmin creates a platform admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin, nil)
}

// CreateSchoolAdmin creates a school-admin bound to schoolID.
func (f *Fixtures) CreateSchoolAdmin(ctx context.Context, name, email string, schoolID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleSchoolAdmin, &schoolID)
}

// CreateStudents creates n students at schoolID.
func (f *Fixtures) CreateStudents(ctx context.Context, n int, schoolID primitive.ObjectID) []models.User {
	f.t.Helper()
	out := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		id := primitive.NewObjectID()
		out = append(out, f.CreateUser(ctx, "Student "+string(rune('A'+i)), "student-"+id.Hex()+"@school.test", models.RoleStudent, &schoolID))
	}
	return out
}

// CreateTeam creates a team at schoolID whose first member is captain.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, schoolID primitive.ObjectID, members []models.User) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	roster := make([]models.TeamMember, 0, len(members))
	for i, m := range members {
		role := models.TeamRoleMember
		if i == 0 {
			role = models.TeamRoleCaptain
		}
		roster = append(roster, models.TeamMember{UserID: m.ID, Role: role, JoinedAt: now})
	}
	var captain primitive.ObjectID
	if len(members) > 0 {
		captain = members[0].ID
	}

	t, err := f.set.Teams.Create(ctx, models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		SchoolID:  schoolID,
		CaptainID: captain,
		Members:   roster,
		IsActive:  true,
	})
	if err != nil {
		f.t.Fatalf("create team %q: %v", name, err)
	}
	return t
}

// CreateCompetition creates an upcoming competition. maxTeams <= 0 means
// unlimited.
func (f *Fixtures) CreateCompetition(ctx context.Context, name string, maxTeams int) models.Competition {
	f.t.Helper()

	start := time.Now().UTC().Add(30 * 24 * time.Hour)
	c := models.Competition{
		ID:                   primitive.NewObjectID(),
		Name:                 name,
		Description:          "Fixture competition for tests",
		Type:                 models.CompetitionKnockout,
		Status:               models.CompetitionUpcoming,
		RegistrationDeadline: start.Add(-7 * 24 * time.Hour),
		StartDate:            start,
		EndDate:              start.Add(48 * time.Hour),
		RegisteredTeams:      []primitive.ObjectID{},
		Prizes:               []string{"Trophy"},
	}
	if maxTeams > 0 {
		c.MaxTeams = &maxTeams
	}
	out, err := f.set.Competitions.Create(ctx, c)
	if err != nil {
		f.t.Fatalf("create competition %q: %v", name, err)
	}
	return out
}

// CreatePost creates a community post.
func (f *Fixtures) CreatePost(ctx context.Context, title string, author primitive.ObjectID) models.Post {
	f.t.Helper()

	p, err := f.set.Posts.Create(ctx, models.Post{
		ID:       primitive.NewObjectID(),
		Title:    title,
		Content:  "Fixture post content",
		AuthorID: author,
		Category: "general",
	})
	if err != nil {
		f.t.Fatalf("create post %q: %v", title, err)
	}
	return p
}
