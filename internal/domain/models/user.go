// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is any person with an account: students, parents, coaches,
// school administrators and platform admins.
//
// Users are never deleted. Verified and IsActive are independent flags and
// are only changed by admin actions (see the useradmin service).
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	NameCI       string              `bson:"name_ci" json:"-"`   // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"` // unique, lowercase
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Image        string              `bson:"image,omitempty" json:"image,omitempty"`
	Role         Role                `bson:"role" json:"role"`
	SchoolID     *primitive.ObjectID `bson:"school_id,omitempty" json:"schoolId,omitempty"`
	Verified     bool                `bson:"verified" json:"verified"`
	IsActive     bool                `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
