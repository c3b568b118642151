// internal/app/store/schools/schoolstore.go
package schoolstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/paging"
	"github.com/dalemusser/robohub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("schools")}
}

// Create inserts a new school. Unique indexes on slug and name_ci turn
// duplicates into store.ErrDuplicate.
func (s *Store) Create(ctx context.Context, sc models.School) (models.School, error) {
	now := time.Now().UTC()
	sc.ID = primitive.NewObjectID()
	sc.NameCI = text.Fold(sc.Name)
	sc.CreatedAt = now
	sc.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sc); err != nil {
		if wafflemongo.IsDup(err) {
			return models.School{}, store.ErrDuplicate
		}
		return models.School{}, err
	}
	return sc, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (models.School, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *Store) ExistsByNameOrAdminEmail(ctx context.Context, name, adminEmail string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"name_ci": text.Fold(name)},
		bson.M{"admin_email": adminEmail},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns one keyset page of schools ordered by folded name.
func (s *Store) List(ctx context.Context, p store.Page) ([]models.School, error) {
	cfg := paging.ConfigureKeyset(p.Before, p.After)
	filter := bson.M{}
	if w := cfg.KeysetWindow("name_ci"); w != nil {
		filter = w
	}
	find := options.Find()
	cfg.ApplyToFind(find, "name_ci", paging.Limit(p.Limit))

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.School{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(out)
	}
	return out, nil
}

func (s *Store) SetVerified(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	var out models.School
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_verified": true, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.School{}, store.ErrNotFound
	}
	return out, err
}

func (s *Store) IncrementMembers(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"member_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.School, error) {
	var sc models.School
	if err := s.c.FindOne(ctx, filter).Decode(&sc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.School{}, store.ErrNotFound
		}
		return models.School{}, err
	}
	return sc, nil
}
