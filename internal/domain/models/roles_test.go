package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"student", RoleStudent, true},
		{" Coach ", RoleCoach, true},
		{"school-admin", RoleSchoolAdmin, true},
		{"school_admin", RoleSchoolAdmin, true},
		{"ADMIN", RoleAdmin, true},
		{"superadmin", Role("superadmin"), false},
		{"", Role(""), false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRole_UnmarshalBSONValue(t *testing.T) {
	type doc struct {
		Role Role `bson:"role"`
	}

	raw, err := bson.Marshal(bson.M{"role": "school_admin"})
	if err != nil {
		t.Fatal(err)
	}
	var d doc
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Role != RoleSchoolAdmin {
		t.Errorf("legacy role decoded as %q", d.Role)
	}

	raw, _ = bson.Marshal(bson.M{"role": "janitor"})
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Role != Role("janitor") || d.Role.Valid() {
		t.Errorf("unknown role = %q, Valid = %v", d.Role, d.Role.Valid())
	}
}

func TestTeamRole_Valid(t *testing.T) {
	for _, tr := range []TeamRole{TeamRoleCaptain, TeamRoleMember, TeamRoleMentor} {
		if !tr.Valid() {
			t.Errorf("%q should be valid", tr)
		}
	}
	if TeamRole("coach").Valid() {
		t.Error("coach is not a roster role")
	}
}

func TestCompetition_FullAndHasTeam(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	limit := 1

	open := Competition{RegisteredTeams: []primitive.ObjectID{a}}
	if open.Full() {
		t.Error("competition without MaxTeams reported full")
	}
	if !open.HasTeam(a) || open.HasTeam(b) {
		t.Error("HasTeam mismatch")
	}

	capped := Competition{MaxTeams: &limit, RegisteredTeams: []primitive.ObjectID{a}}
	if !capped.Full() {
		t.Error("competition at MaxTeams not reported full")
	}
}

func TestTeam_HasMember(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	team := Team{Members: []TeamMember{{UserID: a, Role: TeamRoleCaptain}}}
	if !team.HasMember(a) || team.HasMember(b) {
		t.Error("HasMember mismatch")
	}
}
