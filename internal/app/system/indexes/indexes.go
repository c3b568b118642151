// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll reconciles every collection's indexes. It is idempotent and
// reports all failures together so startup can stop on any of them.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"schools", ensureSchools},
		{"teams", ensureTeams},
		{"competitions", ensureCompetitions},
		{"audit_log", ensureAuditLog},
		{"posts", ensurePosts},
		{"comments", ensureComments},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// existingIndex is the subset of listIndexes output the reconciler reads.
type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func (e existingIndex) unique() bool { return e.Unique != nil && *e.Unique }

// desired is one wanted index with its options flattened.
type desired struct {
	model  mongo.IndexModel
	name   string
	sig    string
	unique bool
}

func describe(m mongo.IndexModel) desired {
	d := desired{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// IndexOptionsConflict comes back when the keys exist under another name or
// with other options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// createFailure describes a failed create. A unique index blocked by
// existing duplicates gets an aggregation that finds them.
func createFailure(coll string, d desired, err error) string {
	if !d.unique || !isDuplicateKeyErr(err) {
		return fmt.Sprintf("%s(%s): %v", coll, d.name, err)
	}
	field := strings.SplitN(d.sig, ":", 2)[0]
	return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present); find them with "+
		`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
		coll, d.name, coll, field)
}

// listBySig maps key signatures to the indexes already on coll.
func listBySig(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]existingIndex)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("skipping undecodable index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// replace drops old and creates d in its place.
func replace(ctx context.Context, coll *mongo.Collection, old existingIndex, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, old.Name); err != nil {
		return fmt.Errorf("%s(%s): drop %s failed: %w", coll.Name(), d.name, old.Name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		return errors.New(createFailure(coll.Name(), d, err))
	}
	return nil
}

// reconcile brings one wanted index into place. Matching keys with matching
// uniqueness are reused, renamed when the name differs. Anything else on the
// same keys is dropped and rebuilt.
func reconcile(ctx context.Context, coll *mongo.Collection, existing map[string]existingIndex, d desired) (string, error) {
	if ex, ok := existing[d.sig]; ok {
		switch {
		case ex.unique() != d.unique:
			return "recreated", replace(ctx, coll, ex, d)
		case d.name != "" && ex.Name != d.name:
			return "renamed", replace(ctx, coll, ex, d)
		default:
			return "reused", nil
		}
	}

	_, err := coll.Indexes().CreateOne(ctx, d.model)
	if err == nil {
		return "created", nil
	}
	if !isOptionsConflictErr(err) {
		return "", errors.New(createFailure(coll.Name(), d, err))
	}

	// Someone else built it since we listed; look again.
	fresh, lerr := listBySig(ctx, coll)
	if lerr != nil {
		return "", fmt.Errorf("%s(%s): %v", coll.Name(), d.name, err)
	}
	ex, ok := fresh[d.sig]
	if !ok {
		return "", fmt.Errorf("%s(%s): %v", coll.Name(), d.name, err)
	}
	if ex.unique() == d.unique && (d.name == "" || ex.Name == d.name) {
		return "reused", nil
	}
	return "recreated", replace(ctx, coll, ex, d)
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listBySig(ctx, coll)
	if err != nil {
		zap.L().Warn("list indexes failed; creating blind",
			zap.String("collection", coll.Name()),
			zap.Error(err))
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		d := describe(m)
		start := time.Now()
		outcome, err := reconcile(ctx, coll, existing, d)
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			errs = append(errs, err.Error())
			continue
		}
		zap.L().Info("index "+outcome, fields...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login identifier and must be unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Admin user lists and coach directory: role filter, name sort.
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "school_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_users_school_role"),
		},
	})
}

func ensureSchools(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("schools")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// The slug doubles as the school code entered at sign-up.
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_schools_slug"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_schools_nameci"),
		},
		// Keyset paging by name.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_schools_nameci__id"),
		},
		{
			Keys:    bson.D{{Key: "admin_email", Value: 1}},
			Options: options.Index().SetName("idx_schools_adminemail"),
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("teams")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "school_id", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_school_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_member_user"),
		},
	})
}

func ensureCompetitions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("competitions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_competitions_start_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_competitions_status_start"),
		},
	})
}

func ensureAuditLog(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_log")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Recent entries, newest first.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_audit_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "target_user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_target_created"),
		},
	})
}

func ensurePosts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("posts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_posts_created_desc"),
		},
	})
}

func ensureComments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("comments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_comments_post_created"),
		},
	})
}
