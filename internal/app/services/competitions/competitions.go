// internal/app/services/competitions/competitions.go
package competitions

import (
	"context"
	"errors"
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

// CreateInput is the competition form.
type CreateInput struct {
	Name                 string    `json:"name" validate:"required,min=3,max=150" label:"Competition name"`
	Description          string    `json:"description" validate:"required,min=10,max=2000" label:"Description"`
	Type                 string    `json:"type" validate:"required,competitiontype" label:"Type"`
	Level                string    `json:"level,omitempty" validate:"max=50" label:"Level"`
	RegistrationDeadline time.Time `json:"registrationDeadline" validate:"required,ltfield=StartDate" label:"Registration deadline"`
	StartDate            time.Time `json:"startDate" validate:"required" label:"Start date"`
	EndDate              time.Time `json:"endDate" validate:"required,gtfield=StartDate" label:"End date"`
	MaxTeams             *int      `json:"maxTeams,omitempty" validate:"omitempty,min=2,max=100" label:"Max teams"`
	Prizes               []string  `json:"prizes" validate:"min=1,dive,required,max=200" label:"Prizes"`
	Rules                []string  `json:"rules,omitempty" validate:"dive,max=500" label:"Rules"`
	SchoolID             string    `json:"schoolId,omitempty" validate:"omitempty,objectid" label:"School"`
}

// Service manages competitions.
type Service struct {
	competitions store.Competitions
	log          *zap.Logger
	now          func() time.Time
}

// New creates a Service.
func New(competitions store.Competitions, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{competitions: competitions, log: log, now: time.Now}
}

// Create validates in and stores an upcoming competition organized by actor.
func (s *Service) Create(ctx context.Context, actor *auth.SessionUser, in CreateInput) (models.Competition, error) {
	if err := authz.Authorize(actor, authz.CreateCompetition, authz.Target{}).Err(); err != nil {
		return models.Competition{}, err
	}

	in.Name = normalize.Name(in.Name)
	in.Description = normalize.Text(in.Description)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	for i := range in.Prizes {
		in.Prizes[i] = normalize.Text(in.Prizes[i])
	}

	res := inputval.Validate(in)
	if !res.HasErrors() && !in.StartDate.After(s.now()) {
		res.Add("startDate", "Start date must be in the future.")
	}
	if err := res.Err(); err != nil {
		return models.Competition{}, err
	}

	organizer, _ := actor.ObjectID()
	c := models.Competition{
		Name:                 in.Name,
		Description:          in.Description,
		Type:                 in.Type,
		Level:                normalize.Text(in.Level),
		Status:               models.CompetitionUpcoming,
		RegistrationDeadline: in.RegistrationDeadline.UTC(),
		StartDate:            in.StartDate.UTC(),
		EndDate:              in.EndDate.UTC(),
		MaxTeams:             in.MaxTeams,
		RegisteredTeams:      []primitive.ObjectID{},
		Prizes:               in.Prizes,
		Rules:                in.Rules,
		OrganizerID:          organizer,
	}
	if in.SchoolID != "" {
		id, _ := primitive.ObjectIDFromHex(in.SchoolID)
		c.SchoolID = &id
	}

	created, err := s.competitions.Create(ctx, c)
	if err != nil {
		return models.Competition{}, apperr.Internal(err)
	}
	s.log.Info("competition created",
		zap.String("competition_id", created.ID.Hex()),
		zap.String("type", created.Type),
		zap.String("actor_id", actor.ID))
	return created, nil
}

// List returns every competition, soonest first.
func (s *Service) List(ctx context.Context) ([]models.Competition, error) {
	out, err := s.competitions.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Get loads one competition. Malformed ids report not found.
func (s *Service) Get(ctx context.Context, competitionID string) (models.Competition, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(competitionID))
	if err != nil {
		return models.Competition{}, apperr.ErrCompetitionNotFound
	}
	c, err := s.competitions.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Competition{}, apperr.ErrCompetitionNotFound
	}
	if err != nil {
		return models.Competition{}, apperr.Internal(err)
	}
	return c, nil
}
