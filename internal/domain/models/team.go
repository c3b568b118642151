// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roster size bounds.
const (
	MinTeamMembers = 2
	MaxTeamMembers = 5
)

// TeamMember is one entry of a team roster.
type TeamMember struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	Role     TeamRole           `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

// Team belongs to exactly one school. CaptainID always names the single
// member whose role is captain.
//
// Version is incremented on every write and guards concurrent edits.
type Team struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Name          string              `bson:"name" json:"name"`
	NameCI        string              `bson:"name_ci" json:"-"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	SchoolID      primitive.ObjectID  `bson:"school_id" json:"schoolId"`
	CaptainID     primitive.ObjectID  `bson:"captain_id" json:"captainId"`
	Members       []TeamMember        `bson:"members" json:"members"`
	CompetitionID *primitive.ObjectID `bson:"competition_id,omitempty" json:"competitionId,omitempty"`
	IsActive      bool                `bson:"is_active" json:"isActive"`
	Version       int64               `bson:"version" json:"version"`
	CreatedAt     time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updatedAt"`
}

// HasMember reports whether userID is on the roster.
func (t Team) HasMember(userID primitive.ObjectID) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
