package schools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/store/memstore"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/robohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService(t *testing.T) (*Service, store.Set) {
	t.Helper()
	set := memstore.New().Set()
	return New(set.Schools, set.Users, set.Tx, nil), set
}

func TestCreate_SchoolAndAdmin(t *testing.T) {
	svc, set := newService(t)
	ctx := context.Background()

	sc, err := svc.Create(ctx, CreateInput{Name: "  Lakeside   Robotics Academy ", AdminEmail: "Principal.Jones@Lakeside.edu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.Slug != "lakeside-robotics-academy" {
		t.Errorf("Slug = %q", sc.Slug)
	}
	if sc.IsVerified || sc.MemberCount != 0 {
		t.Errorf("unexpected school state: %+v", sc)
	}

	admin, err := set.Users.GetByEmail(ctx, "principal.jones@lakeside.edu")
	if err != nil {
		t.Fatalf("admin user not created: %v", err)
	}
	if admin.Role != models.RoleSchoolAdmin || admin.SchoolID == nil || *admin.SchoolID != sc.ID {
		t.Errorf("unexpected admin: %+v", admin)
	}
	if admin.Name != "Principal Jones" {
		t.Errorf("admin Name = %q", admin.Name)
	}
	if admin.PasswordHash == "" {
		t.Error("admin has no password hash")
	}
}

func TestCreate_ExistingAdminKept(t *testing.T) {
	svc, set := newService(t)
	ctx := context.Background()
	fx := testutil.NewFixtures(t, set)
	existing := fx.CreateUser(ctx, "Casey Coach", "casey@lakeside.edu", models.RoleCoach, nil)

	if _, err := svc.Create(ctx, CreateInput{Name: "Lakeside", AdminEmail: "casey@lakeside.edu"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	after, _ := set.Users.GetByID(ctx, existing.ID)
	if after.Role != models.RoleCoach {
		t.Errorf("existing user role changed to %s", after.Role)
	}
}

func TestCreate_Conflicts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateInput{Name: "Northside High", AdminEmail: "a@north.edu"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"same name", CreateInput{Name: "northside high", AdminEmail: "b@north.edu"}},
		{"same admin email", CreateInput{Name: "Northside Middle", AdminEmail: "A@north.edu"}},
		{"same slug", CreateInput{Name: "Northside-High", AdminEmail: "c@north.edu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			if !errors.Is(err, errSchoolExists) {
				t.Fatalf("err = %v, want school exists", err)
			}
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, set := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing name", CreateInput{AdminEmail: "a@x.edu"}, "name"},
		{"bad admin email", CreateInput{Name: "West High", AdminEmail: "nope"}, "adminEmail"},
		{"bad website", CreateInput{Name: "West High", AdminEmail: "a@x.edu", Website: "ftp://west.edu"}, "website"},
		{"symbols only", CreateInput{Name: "!!!", AdminEmail: "a@x.edu"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			ae := apperr.From(err)
			if ae == nil || ae.Kind != apperr.KindValidation {
				t.Fatalf("err = %v, want validation", err)
			}
			if _, ok := ae.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", ae.Fields, tt.field)
			}
		})
	}

	if users, _ := set.Users.List(ctx, store.UserFilter{}); len(users) != 0 {
		t.Errorf("rejected creates stored %d users", len(users))
	}
}

func TestList_KeysetPages(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, CreateInput{Name: fmt.Sprintf("School %c", 'A'+i), AdminEmail: fmt.Sprintf("admin%d@x.edu", i)}); err != nil {
			t.Fatal(err)
		}
	}

	first, err := svc.List(ctx, "", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Schools) != 2 || first.Schools[0].Name != "School A" || !first.HasNext || first.HasPrev {
		t.Fatalf("unexpected first page: %+v", first)
	}

	second, err := svc.List(ctx, "", first.Next, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Schools) != 2 || second.Schools[0].Name != "School C" || !second.HasPrev || !second.HasNext {
		t.Fatalf("unexpected second page: %+v", second)
	}

	back, err := svc.List(ctx, second.Prev, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Schools) != 2 || back.Schools[0].Name != "School A" {
		t.Fatalf("unexpected page before second: %+v", back)
	}
}

func TestVerify(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sc, err := svc.Create(ctx, CreateInput{Name: "East High", AdminEmail: "a@east.edu"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Verify(ctx, testutil.SchoolAdminUser(sc.ID), sc.ID.Hex()); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("school admin verify: err = %v", err)
	}
	if _, err := svc.Verify(ctx, nil, sc.ID.Hex()); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("anonymous verify: err = %v", err)
	}

	got, err := svc.Verify(ctx, testutil.AdminUser(), sc.ID.Hex())
	if err != nil || !got.IsVerified {
		t.Fatalf("Verify = %+v, %v", got, err)
	}
	if _, err := svc.Verify(ctx, testutil.AdminUser(), primitive.NewObjectID().Hex()); !errors.Is(err, apperr.ErrSchoolNotFound) {
		t.Errorf("unknown school: err = %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"principal.jones@lakeside.edu", "Principal Jones"},
		{"PRINCIPAL.JONES@LAKESIDE.EDU", "Principal Jones"},
		{"mary_ann-smith99@x.test", "Mary Ann Smith"},
		{"jdoe@x.test", "Jdoe"},
		{"1234@x.test", "School Admin"},
	}
	for _, tt := range tests {
		if got := displayName(tt.email); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
