// internal/app/services/roster/roster.go
//
// Package roster creates and edits team rosters. Every write validates the
// complete merged roster first, so a team is never stored with fewer than
// two or more than five members, a missing captain or a duplicated user.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// MemberInput is one roster entry in a create or edit request.
type MemberInput struct {
	UserID string `json:"userId" validate:"required,objectid" label:"User"`
	Role   string `json:"role" validate:"required,teamrole" label:"Role"`
}

// TeamInput is the create request and, after merging, the shape every edit
// is validated in.
type TeamInput struct {
	Name        string        `json:"name" validate:"required,min=2,max=100" label:"Team name"`
	Description string        `json:"description" validate:"max=300" label:"Description"`
	SchoolID    string        `json:"schoolId" validate:"required,objectid" label:"School"`
	CaptainID   string        `json:"captainId" validate:"omitempty,objectid" label:"Captain"`
	Members     []MemberInput `json:"members" validate:"min=2,max=5,dive" label:"Members"`
}

// Patch is a partial edit. Nil fields keep their stored value. Version,
// when non-zero, must equal the stored version.
type Patch struct {
	Name          *string       `json:"name"`
	Description   *string       `json:"description"`
	CaptainID     *string       `json:"captainId"`
	Members       []MemberInput `json:"members"`
	CompetitionID *string       `json:"competitionId"`
	Version       int64         `json:"version"`
}

// Service manages teams.
type Service struct {
	teams   store.Teams
	users   store.Users
	schools store.Schools
	log     *zap.Logger
	now     func() time.Time
}

// New creates a Service.
func New(teams store.Teams, users store.Users, schools store.Schools, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		teams:   teams,
		users:   users,
		schools: schools,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTeam validates in and stores a new team at in.SchoolID.
func (s *Service) CreateTeam(ctx context.Context, actor *auth.SessionUser, in TeamInput) (models.Team, error) {
	if actor == nil {
		return models.Team{}, apperr.Unauthorized("")
	}
	in.Name = normalize.Name(in.Name)
	in.Description = normalize.Text(in.Description)

	if err := checkShape(in); err != nil {
		return models.Team{}, err
	}
	if err := authz.Authorize(actor, authz.ManageTeam, authz.Target{SchoolID: in.SchoolID}).Err(); err != nil {
		return models.Team{}, err
	}
	if err := s.checkMembersExist(ctx, in); err != nil {
		return models.Team{}, err
	}

	schoolID, _ := primitive.ObjectIDFromHex(strings.TrimSpace(in.SchoolID))
	if _, err := s.schools.GetByID(ctx, schoolID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Team{}, apperr.ErrSchoolNotFound
		}
		return models.Team{}, apperr.Internal(err)
	}

	team := models.Team{
		Name:        in.Name,
		Description: in.Description,
		SchoolID:    schoolID,
		IsActive:    true,
	}
	applyRoster(&team, in, nil, s.now())

	created, err := s.teams.Create(ctx, team)
	if err != nil {
		return models.Team{}, apperr.Internal(err)
	}
	s.log.Info("team created",
		zap.String("team_id", created.ID.Hex()),
		zap.String("school_id", in.SchoolID),
		zap.Int("members", len(created.Members)),
		zap.String("actor_id", actor.ID))
	return created, nil
}

// EditTeam merges patch into the stored team, validates the result and
// writes it under the team's version guard.
func (s *Service) EditTeam(ctx context.Context, actor *auth.SessionUser, teamID string, patch Patch) (models.Team, error) {
	if actor == nil {
		return models.Team{}, apperr.Unauthorized("")
	}
	cur, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if err := authz.Authorize(actor, authz.ManageTeam, authz.Target{SchoolID: cur.SchoolID.Hex()}).Err(); err != nil {
		return models.Team{}, err
	}
	if patch.CompetitionID != nil {
		return models.Team{}, apperr.Validation("Competition cannot be changed from the team editor.",
			map[string]string{"competitionId": "Competition cannot be changed from the team editor."})
	}
	if patch.Version != 0 && patch.Version != cur.Version {
		return models.Team{}, apperr.ErrStaleTeam
	}

	merged := inputFrom(cur)
	if patch.Name != nil {
		merged.Name = normalize.Name(*patch.Name)
	}
	if patch.Description != nil {
		merged.Description = normalize.Text(*patch.Description)
	}
	if patch.Members != nil {
		merged.Members = patch.Members
		// A new roster without an explicit captain id derives it again.
		if patch.CaptainID == nil {
			merged.CaptainID = ""
		}
	}
	if patch.CaptainID != nil {
		merged.CaptainID = strings.TrimSpace(*patch.CaptainID)
	}

	if err := checkShape(merged); err != nil {
		return models.Team{}, err
	}
	if err := s.checkMembersExist(ctx, merged); err != nil {
		return models.Team{}, err
	}

	next := cur
	next.Name = merged.Name
	next.Description = merged.Description
	applyRoster(&next, merged, cur.Members, s.now())

	updated, err := s.teams.Update(ctx, next)
	switch {
	case errors.Is(err, store.ErrStale):
		return models.Team{}, apperr.ErrStaleTeam
	case errors.Is(err, store.ErrNotFound):
		return models.Team{}, apperr.ErrTeamNotFound
	case err != nil:
		return models.Team{}, apperr.Internal(err)
	}
	s.log.Info("team updated",
		zap.String("team_id", updated.ID.Hex()),
		zap.Int64("version", updated.Version),
		zap.String("actor_id", actor.ID))
	return updated, nil
}

// GetTeam loads one team. Malformed ids report not found.
func (s *Service) GetTeam(ctx context.Context, teamID string) (models.Team, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(teamID))
	if err != nil {
		return models.Team{}, apperr.ErrTeamNotFound
	}
	t, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Team{}, apperr.ErrTeamNotFound
		}
		return models.Team{}, apperr.Internal(err)
	}
	return t, nil
}

// ListTeams returns teams ordered by name, optionally narrowed to one school.
func (s *Service) ListTeams(ctx context.Context, schoolID string) ([]models.Team, error) {
	var f store.TeamFilter
	if schoolID = strings.TrimSpace(schoolID); schoolID != "" {
		id, err := primitive.ObjectIDFromHex(schoolID)
		if err != nil {
			return nil, apperr.Validation("School must be a valid id.", map[string]string{"schoolId": "School must be a valid id."})
		}
		f.SchoolID = &id
	}
	teams, err := s.teams.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return teams, nil
}

// checkShape runs the tag rules and then the cross-field roster rules. It
// never touches the store, so it is safe to run before authorization.
func checkShape(in TeamInput) error {
	res := inputval.Validate(in)
	if res.HasErrors() {
		return res.Err()
	}

	// Ids are keyed parsed; hex decoding ignores case.
	seen := make(map[primitive.ObjectID]int, len(in.Members))
	captains := 0
	var captainID primitive.ObjectID
	for i, m := range in.Members {
		key := fmt.Sprintf("members[%d].userId", i)
		id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(m.UserID))
		if j, dup := seen[id]; dup {
			res.Add(key, fmt.Sprintf("User is already on the roster (entry %d).", j+1))
			continue
		}
		seen[id] = i
		if models.TeamRole(m.Role) == models.TeamRoleCaptain {
			captains++
			captainID = id
		}
	}
	switch {
	case captains == 0:
		res.Add("members", "The team needs a captain.")
	case captains > 1:
		res.Add("members", "A team can have only one captain.")
	case in.CaptainID != "" && !sameID(in.CaptainID, captainID):
		res.Add("captainId", "Captain must be the roster member whose role is captain.")
	}
	return res.Err()
}

// checkMembersExist reports roster entries whose user is unknown.
func (s *Service) checkMembersExist(ctx context.Context, in TeamInput) error {
	res := &inputval.Result{}
	for i, m := range in.Members {
		id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(m.UserID))
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				res.Add(fmt.Sprintf("members[%d].userId", i), "User not found.")
				continue
			}
			return apperr.Internal(err)
		}
	}
	return res.Err()
}

// applyRoster copies the validated members onto t. Members already on prev
// keep their joined_at.
func applyRoster(t *models.Team, in TeamInput, prev []models.TeamMember, now time.Time) {
	joined := make(map[primitive.ObjectID]time.Time, len(prev))
	for _, m := range prev {
		joined[m.UserID] = m.JoinedAt
	}

	t.Members = make([]models.TeamMember, 0, len(in.Members))
	for _, m := range in.Members {
		id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(m.UserID))
		at, ok := joined[id]
		if !ok {
			at = now
		}
		role := models.TeamRole(m.Role)
		if role == models.TeamRoleCaptain {
			t.CaptainID = id
		}
		t.Members = append(t.Members, models.TeamMember{UserID: id, Role: role, JoinedAt: at})
	}
}

func sameID(hex string, id primitive.ObjectID) bool {
	parsed, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	return err == nil && parsed == id
}

func inputFrom(t models.Team) TeamInput {
	in := TeamInput{
		Name:        t.Name,
		Description: t.Description,
		SchoolID:    t.SchoolID.Hex(),
		CaptainID:   t.CaptainID.Hex(),
		Members:     make([]MemberInput, 0, len(t.Members)),
	}
	for _, m := range t.Members {
		in.Members = append(in.Members, MemberInput{UserID: m.UserID.Hex(), Role: string(m.Role)})
	}
	return in
}
