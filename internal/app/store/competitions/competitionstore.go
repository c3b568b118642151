// internal/app/store/competitions/competitionstore.go
package competitionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// addTeamAttempts bounds re-tries when the conditional update misses but the
// re-read shows the competition could still accept the team.
const addTeamAttempts = 3

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("competitions")}
}

func (s *Store) Create(ctx context.Context, c models.Competition) (models.Competition, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.RegisteredTeams = []primitive.ObjectID{}
	c.CurrentTeams = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Competition{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Competition, error) {
	var c models.Competition
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Competition{}, store.ErrNotFound
		}
		return models.Competition{}, err
	}
	return c, nil
}

// List returns competitions ordered by start date, soonest first.
func (s *Store) List(ctx context.Context) ([]models.Competition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Competition{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddTeam registers teamID with a single conditional update. The filter
// carries both conditions (team absent, room left) so Mongo's per-document
// atomicity serializes concurrent registrations for the same competition.
func (s *Store) AddTeam(ctx context.Context, competitionID, teamID primitive.ObjectID) (models.Competition, error) {
	filter := bson.M{
		"_id":              competitionID,
		"registered_teams": bson.M{"$ne": teamID},
		"$or": bson.A{
			bson.M{"max_teams": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$registered_teams", bson.A{}}}},
				"$max_teams",
			}}},
		},
	}
	// current_teams is recomputed from the array so a drifted counter heals.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"registered_teams": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$registered_teams", bson.A{}}},
				bson.A{teamID},
			}},
			"updated_at": time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{"current_teams": bson.M{"$size": "$registered_teams"}}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < addTeamAttempts; attempt++ {
		var updated models.Competition
		err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Competition{}, err
		}

		// The filter did not match: find out which condition failed.
		cur, err := s.GetByID(ctx, competitionID)
		if err != nil {
			return models.Competition{}, err
		}
		if cur.Full() {
			return models.Competition{}, store.ErrCapacity
		}
		if cur.HasTeam(teamID) {
			return models.Competition{}, store.ErrAlreadyRegistered
		}
	}
	return models.Competition{}, store.ErrCapacity
}
