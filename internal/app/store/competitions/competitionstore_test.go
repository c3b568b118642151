package competitionstore

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/robohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

func newCompetition(maxTeams *int) models.Competition {
	start := time.Now().UTC().Add(7 * 24 * time.Hour)
	return models.Competition{
		Name:                 "Harbor Invitational",
		Type:                 models.CompetitionKnockout,
		RegistrationDeadline: start.Add(-time.Hour),
		StartDate:            start,
		EndDate:              start.Add(48 * time.Hour),
		MaxTeams:             maxTeams,
		Prizes:               []string{"Trophy"},
		OrganizerID:          primitive.NewObjectID(),
	}
}

func TestAddTeam_CapacityAndDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	limit := 1
	c, err := s.Create(ctx, newCompetition(&limit))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := s.AddTeam(ctx, c.ID, a)
	if err != nil {
		t.Fatalf("AddTeam a: %v", err)
	}
	if got.CurrentTeams != 1 || !got.HasTeam(a) {
		t.Errorf("after a: %+v", got)
	}
	if _, err := s.AddTeam(ctx, c.ID, b); !errors.Is(err, store.ErrCapacity) {
		t.Errorf("AddTeam b: err = %v, want ErrCapacity", err)
	}
	if _, err := s.AddTeam(ctx, primitive.NewObjectID(), a); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown competition: err = %v, want ErrNotFound", err)
	}

	open, err := s.Create(ctx, newCompetition(nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTeam(ctx, open.ID, a); err != nil {
		t.Fatalf("open AddTeam: %v", err)
	}
	if _, err := s.AddTeam(ctx, open.ID, a); !errors.Is(err, store.ErrAlreadyRegistered) {
		t.Errorf("duplicate: err = %v, want ErrAlreadyRegistered", err)
	}
}

func TestAddTeam_CountFollowsArray(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	c, err := s.Create(ctx, newCompetition(nil))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first := primitive.NewObjectID()
	if _, err := s.AddTeam(ctx, c.ID, first); err != nil {
		t.Fatalf("AddTeam first: %v", err)
	}

	// Drift the stored counter away from the array.
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{"current_teams": 7}}); err != nil {
		t.Fatalf("seed drift: %v", err)
	}

	got, err := s.AddTeam(ctx, c.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("AddTeam second: %v", err)
	}
	if len(got.RegisteredTeams) != 2 || got.CurrentTeams != 2 {
		t.Fatalf("registered = %d, current_teams = %d, want 2 and 2", len(got.RegisteredTeams), got.CurrentTeams)
	}
	if got.RegisteredTeams[0] != first {
		t.Errorf("registration order lost: %v", got.RegisteredTeams)
	}
}

func TestAddTeam_MissingArray(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	c, err := s.Create(ctx, newCompetition(nil))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$unset": bson.M{"registered_teams": ""}}); err != nil {
		t.Fatalf("unset: %v", err)
	}

	got, err := s.AddTeam(ctx, c.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("AddTeam: %v", err)
	}
	if got.CurrentTeams != 1 || len(got.RegisteredTeams) != 1 {
		t.Fatalf("got %+v, want one registered team", got)
	}
}

func TestAddTeam_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := New(db)

	limit := 3
	c, err := s.Create(ctx, newCompetition(&limit))
	if err != nil {
		t.Fatal(err)
	}

	var ok, full atomic.Int32
	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			_, err := s.AddTeam(ctx, c.ID, primitive.NewObjectID())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, store.ErrCapacity):
				full.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("AddTeam: %v", err)
	}

	if ok.Load() != 3 || full.Load() != 9 {
		t.Errorf("ok = %d, full = %d; want 3, 9", ok.Load(), full.Load())
	}
	final, err := s.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.CurrentTeams != 3 || len(final.RegisteredTeams) != 3 {
		t.Errorf("final = %d current, %d registered", final.CurrentTeams, len(final.RegisteredTeams))
	}
}
