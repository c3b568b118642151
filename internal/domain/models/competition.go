// internal/domain/models/competition.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Competition formats.
const (
	CompetitionKnockout    = "knockout"
	CompetitionLeaderboard = "leaderboard"
	CompetitionSprint      = "sprint"
)

// Competition lifecycle states.
const (
	CompetitionUpcoming  = "upcoming"
	CompetitionOngoing   = "ongoing"
	CompetitionCompleted = "completed"
)

// Competition holds the set of registered teams. CurrentTeams is a cache of
// len(RegisteredTeams); stores keep the two equal and never accept it as input.
type Competition struct {
	ID                   primitive.ObjectID   `bson:"_id" json:"id"`
	Name                 string               `bson:"name" json:"name"`
	Description          string               `bson:"description" json:"description"`
	Type                 string               `bson:"type" json:"type"`
	Level                string               `bson:"level,omitempty" json:"level,omitempty"`
	Status               string               `bson:"status" json:"status"`
	RegistrationDeadline time.Time            `bson:"registration_deadline" json:"registrationDeadline"`
	StartDate            time.Time            `bson:"start_date" json:"startDate"`
	EndDate              time.Time            `bson:"end_date" json:"endDate"`
	MaxTeams             *int                 `bson:"max_teams,omitempty" json:"maxTeams,omitempty"`
	CurrentTeams         int                  `bson:"current_teams" json:"currentTeams"`
	RegisteredTeams      []primitive.ObjectID `bson:"registered_teams" json:"registeredTeams"`
	Prizes               []string             `bson:"prizes,omitempty" json:"prizes,omitempty"`
	Rules                []string             `bson:"rules,omitempty" json:"rules,omitempty"`
	OrganizerID          primitive.ObjectID   `bson:"organizer_id" json:"organizerId"`
	SchoolID             *primitive.ObjectID  `bson:"school_id,omitempty" json:"schoolId,omitempty"`
	CreatedAt            time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasTeam reports whether teamID is already registered.
func (c Competition) HasTeam(teamID primitive.ObjectID) bool {
	for _, id := range c.RegisteredTeams {
		if id == teamID {
			return true
		}
	}
	return false
}

// Full reports whether the competition has reached MaxTeams.
// A competition without MaxTeams is never full.
func (c Competition) Full() bool {
	return c.MaxTeams != nil && len(c.RegisteredTeams) >= *c.MaxTeams
}
