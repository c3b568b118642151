package schoolstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/indexes"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/robohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_DuplicatesAndLookups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	s := New(db)

	sc, err := s.Create(ctx, models.School{Name: "Lakeside Academy", Slug: "lakeside-academy", AdminEmail: "jones@lakeside.edu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, models.School{Name: "LAKESIDE academy", Slug: "lakeside-academy-2", AdminEmail: "b@x.test"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate name: err = %v, want ErrDuplicate", err)
	}
	if _, err := s.Create(ctx, models.School{Name: "Other School", Slug: "lakeside-academy", AdminEmail: "c@x.test"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate slug: err = %v, want ErrDuplicate", err)
	}

	got, err := s.GetBySlug(ctx, "lakeside-academy")
	if err != nil || got.ID != sc.ID {
		t.Fatalf("GetBySlug = %+v, %v", got, err)
	}

	for _, tc := range []struct {
		name, email string
		want        bool
	}{
		{"lakeside ACADEMY", "", true},
		{"Nowhere High", "jones@lakeside.edu", true},
		{"Nowhere High", "nobody@x.test", false},
	} {
		exists, err := s.ExistsByNameOrAdminEmail(ctx, tc.name, tc.email)
		if err != nil {
			t.Fatalf("ExistsByNameOrAdminEmail: %v", err)
		}
		if exists != tc.want {
			t.Errorf("ExistsByNameOrAdminEmail(%q, %q) = %v, want %v", tc.name, tc.email, exists, tc.want)
		}
	}
}

func TestSetVerifiedAndMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	sc, err := s.Create(ctx, models.School{Name: "Ridge Tech", Slug: "ridge-tech", AdminEmail: "a@ridge.test"})
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.SetVerified(ctx, sc.ID)
	if err != nil || !v.IsVerified {
		t.Fatalf("SetVerified = %+v, %v", v, err)
	}
	if err := s.IncrementMembers(ctx, sc.ID, 3); err != nil {
		t.Fatalf("IncrementMembers: %v", err)
	}
	got, err := s.GetByID(ctx, sc.ID)
	if err != nil || got.MemberCount != 3 {
		t.Fatalf("after increment = %+v, %v", got, err)
	}

	unknown := primitive.NewObjectID()
	if _, err := s.SetVerified(ctx, unknown); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetVerified unknown: err = %v, want ErrNotFound", err)
	}
	if err := s.IncrementMembers(ctx, unknown, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("IncrementMembers unknown: err = %v, want ErrNotFound", err)
	}
}

func TestList_KeysetByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	for i, name := range []string{"Delta", "alpha", "Charlie", "bravo"} {
		if _, err := s.Create(ctx, models.School{Name: name, Slug: name, AdminEmail: string(rune('a'+i)) + "@x.test"}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.List(ctx, store.Page{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// One look-ahead row beyond the limit tells the caller a next page exists.
	if len(page) != 3 || page[0].Name != "alpha" || page[1].Name != "bravo" || page[2].Name != "Charlie" {
		t.Fatalf("first page = %+v", page)
	}
}
