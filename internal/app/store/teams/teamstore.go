// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teams")}
}

func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Team{}, store.ErrNotFound
		}
		return models.Team{}, err
	}
	return t, nil
}

// List returns teams ordered by folded name, optionally limited to one school.
func (s *Store) List(ctx context.Context, f store.TeamFilter) ([]models.Team, error) {
	filter := bson.M{}
	if f.SchoolID != nil {
		filter["school_id"] = *f.SchoolID
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Team{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the roster fields guarded by the version counter.
func (s *Store) Update(ctx context.Context, t models.Team) (models.Team, error) {
	set := bson.M{
		"name":        t.Name,
		"name_ci":     text.Fold(t.Name),
		"description": t.Description,
		"captain_id":  t.CaptainID,
		"members":     t.Members,
		"is_active":   t.IsActive,
		"updated_at":  time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Team
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": t.ID, "version": t.Version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		opts,
	).Decode(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, err
	}
	if _, gerr := s.GetByID(ctx, t.ID); gerr != nil {
		return models.Team{}, gerr
	}
	return models.Team{}, store.ErrStale
}
