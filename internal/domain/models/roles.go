// internal/domain/models/roles.go
package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Role is the canonical role enumeration shared by every component.
type Role string

const (
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
	RoleCoach       Role = "coach"
	RoleSchoolAdmin Role = "school-admin"
	RoleAdmin       Role = "admin"
)

// Roles lists every canonical role.
var Roles = []Role{RoleStudent, RoleParent, RoleCoach, RoleSchoolAdmin, RoleAdmin}

// SignupRoles are the roles a visitor may pick for themselves.
var SignupRoles = []Role{RoleStudent, RoleParent, RoleCoach, RoleSchoolAdmin}

// ParseRole maps a raw role string to its canonical form.
// The legacy "school_admin" spelling is accepted and normalized.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "school_admin" {
		r = RoleSchoolAdmin
	}
	return r, r.Valid()
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	for _, c := range Roles {
		if r == c {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// UnmarshalBSONValue normalizes stored roles so legacy documents decode to
// the canonical spelling. Unknown values are kept verbatim and fail Valid.
func (r *Role) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&s); err != nil {
		return err
	}
	if parsed, ok := ParseRole(s); ok {
		*r = parsed
		return nil
	}
	*r = Role(s)
	return nil
}

// TeamRole is a member's role inside a team roster.
type TeamRole string

const (
	TeamRoleCaptain TeamRole = "captain"
	TeamRoleMember  TeamRole = "member"
	TeamRoleMentor  TeamRole = "mentor"
)

// Valid reports whether tr is a known roster role.
func (tr TeamRole) Valid() bool {
	switch tr {
	case TeamRoleCaptain, TeamRoleMember, TeamRoleMentor:
		return true
	}
	return false
}
