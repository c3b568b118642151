// internal/domain/models/school.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// School is a member institution. Slug is derived from the name once at
// creation and never changes; it doubles as the code students use to join.
type School struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"`
	Slug         string             `bson:"slug" json:"slug"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	ContactEmail string             `bson:"contact_email,omitempty" json:"contactEmail,omitempty"`
	Website      string             `bson:"website,omitempty" json:"website,omitempty"`
	AdminEmail   string             `bson:"admin_email" json:"adminEmail"`
	IsVerified   bool               `bson:"is_verified" json:"isVerified"`
	MemberCount  int                `bson:"member_count" json:"memberCount"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
