// internal/app/services/registration/registration.go
//
// Package registration links teams to competitions. Capacity and duplicate
// checks are repeated by the store's conditional write, so concurrent
// registrations for one competition never exceed max_teams.
package registration

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/authz"
	"github.com/dalemusser/robohub/internal/app/system/metrics"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Input is the registration request.
type Input struct {
	CompetitionID string `json:"competitionId"`
	TeamID        string `json:"teamId"`
	SchoolID      string `json:"schoolId"`
}

// Service performs registrations.
type Service struct {
	competitions store.Competitions
	teams        store.Teams
	log          *zap.Logger
}

// New creates a Service over the given stores.
func New(competitions store.Competitions, teams store.Teams, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{competitions: competitions, teams: teams, log: log}
}

// Register adds in.TeamID to the competition's registered set and returns
// the updated competition.
func (s *Service) Register(ctx context.Context, actor *auth.SessionUser, in Input) (models.Competition, error) {
	c, err := s.register(ctx, actor, in)
	outcome := "ok"
	if err != nil {
		outcome = apperr.From(err).Code
	}
	metrics.Registration(outcome)

	fields := []zap.Field{
		zap.String("competition_id", in.CompetitionID),
		zap.String("team_id", in.TeamID),
		zap.String("school_id", in.SchoolID),
		zap.String("outcome", outcome),
	}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID))
	}
	switch {
	case err == nil:
		s.log.Info("team registered", append(fields, zap.Int("current_teams", c.CurrentTeams))...)
	case apperr.KindOf(err) == apperr.KindInternal:
		s.log.Error("team registration failed", append(fields, zap.Error(err))...)
	default:
		s.log.Info("team registration rejected", fields...)
	}
	return c, err
}

func (s *Service) register(ctx context.Context, actor *auth.SessionUser, in Input) (models.Competition, error) {
	if actor == nil {
		return models.Competition{}, apperr.Unauthorized("")
	}
	in.CompetitionID = strings.TrimSpace(in.CompetitionID)
	in.TeamID = strings.TrimSpace(in.TeamID)
	in.SchoolID = strings.TrimSpace(in.SchoolID)
	if in.CompetitionID == "" || in.TeamID == "" || in.SchoolID == "" {
		return models.Competition{}, apperr.MissingFields("competitionId, teamId, and schoolId are required.")
	}

	if err := authz.Authorize(actor, authz.RegisterTeam, authz.Target{SchoolID: in.SchoolID}).Err(); err != nil {
		return models.Competition{}, err
	}

	// A malformed id cannot name a stored entity.
	compID, err := primitive.ObjectIDFromHex(in.CompetitionID)
	if err != nil {
		return models.Competition{}, apperr.ErrCompetitionNotFound
	}
	comp, err := s.competitions.GetByID(ctx, compID)
	if err != nil {
		return models.Competition{}, storeErr(err)
	}
	if comp.Full() {
		return models.Competition{}, apperr.ErrCapacityExceeded
	}

	teamID, err := primitive.ObjectIDFromHex(in.TeamID)
	if err != nil {
		return models.Competition{}, apperr.ErrTeamNotFound
	}
	if comp.HasTeam(teamID) {
		return models.Competition{}, apperr.ErrDuplicateRegistration
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Competition{}, apperr.ErrTeamNotFound
		}
		return models.Competition{}, apperr.Internal(err)
	}
	if schoolID, err := primitive.ObjectIDFromHex(in.SchoolID); err != nil || team.SchoolID != schoolID {
		return models.Competition{}, apperr.ErrSchoolMismatch
	}

	updated, err := s.competitions.AddTeam(ctx, compID, teamID)
	if err != nil {
		return models.Competition{}, storeErr(err)
	}
	return updated, nil
}

// storeErr maps competition store sentinels to client errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.ErrCompetitionNotFound
	case errors.Is(err, store.ErrCapacity):
		return apperr.ErrCapacityExceeded
	case errors.Is(err, store.ErrAlreadyRegistered):
		return apperr.ErrDuplicateRegistration
	}
	return apperr.Internal(err)
}
