// internal/app/store/memstore/memstore.go
//
// Package memstore is an in-memory implementation of every store contract.
// All collections share one mutex, so each call is atomic and registrations
// for a competition are serialized. Within runs units one at a time and
// restores a snapshot of all collections when the unit fails. Writes made
// outside a unit wait for the running unit to finish, so a rollback never
// discards them.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/normalize"
	"github.com/dalemusser/robohub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type data struct {
	competitions map[primitive.ObjectID]models.Competition
	teams        map[primitive.ObjectID]models.Team
	schools      map[primitive.ObjectID]models.School
	users        map[primitive.ObjectID]models.User
	audit        []models.AuditEntry
	posts        map[primitive.ObjectID]models.Post
	comments     []models.Comment
}

func newData() data {
	return data{
		competitions: map[primitive.ObjectID]models.Competition{},
		teams:        map[primitive.ObjectID]models.Team{},
		schools:      map[primitive.ObjectID]models.School{},
		users:        map[primitive.ObjectID]models.User{},
		posts:        map[primitive.ObjectID]models.Post{},
	}
}

func (d data) clone() data {
	out := newData()
	for k, v := range d.competitions {
		out.competitions[k] = copyCompetition(v)
	}
	for k, v := range d.teams {
		out.teams[k] = copyTeam(v)
	}
	for k, v := range d.schools {
		out.schools[k] = v
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	out.audit = append([]models.AuditEntry(nil), d.audit...)
	for k, v := range d.posts {
		out.posts[k] = v
	}
	out.comments = append([]models.Comment(nil), d.comments...)
	return out
}

// DB holds the shared state behind every collection view.
type DB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    data

	// FailAudit, when set, is returned by every AuditLog.Append call.
	// Tests use it to exercise audit failure paths.
	FailAudit error
}

// New returns an empty in-memory database.
func New() *DB {
	return &DB{d: newData()}
}

// Set returns a store.Set backed by db.
func (db *DB) Set() store.Set {
	return store.Set{
		Competitions: competitions{db},
		Teams:        teams{db},
		Schools:      schools{db},
		Users:        users{db},
		AuditLog:     auditLog{db},
		Posts:        posts{db},
		Comments:     comments{db},
		Tx:           tx{db},
	}
}

// SetFailAudit toggles audit failures.
func (db *DB) SetFailAudit(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.FailAudit = err
}

/* -------------------------------------------------------------------------- */
/* Transactions                                                               */
/* -------------------------------------------------------------------------- */

type txKey struct{}

type tx struct{ db *DB }

func (t tx) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.Active(ctx) {
		return fn(ctx)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	t.db.mu.Lock()
	snap := t.db.d.clone()
	t.db.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.mu.Lock()
		t.db.d = snap
		t.db.mu.Unlock()
		return err
	}
	return nil
}

func (tx) Active(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lockWrite locks db for one write and returns the unlock func. Outside a
// unit it also holds txMu so the write cannot land inside another unit's
// snapshot window.
func (db *DB) lockWrite(ctx context.Context) func() {
	if (tx{}).Active(ctx) {
		db.mu.Lock()
		return db.mu.Unlock
	}
	db.txMu.Lock()
	db.mu.Lock()
	return func() {
		db.mu.Unlock()
		db.txMu.Unlock()
	}
}

/* -------------------------------------------------------------------------- */
/* Competitions                                                               */
/* -------------------------------------------------------------------------- */

type competitions struct{ db *DB }

func copyCompetition(c models.Competition) models.Competition {
	c.RegisteredTeams = append([]primitive.ObjectID{}, c.RegisteredTeams...)
	c.Prizes = append([]string(nil), c.Prizes...)
	c.Rules = append([]string(nil), c.Rules...)
	if c.MaxTeams != nil {
		n := *c.MaxTeams
		c.MaxTeams = &n
	}
	return c
}

func (s competitions) Create(ctx context.Context, c models.Competition) (models.Competition, error) {
	if err := ctx.Err(); err != nil {
		return models.Competition{}, err
	}
	defer s.db.lockWrite(ctx)()
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.RegisteredTeams = []primitive.ObjectID{}
	c.CurrentTeams = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	s.db.d.competitions[c.ID] = copyCompetition(c)
	return copyCompetition(c), nil
}

func (s competitions) GetByID(ctx context.Context, id primitive.ObjectID) (models.Competition, error) {
	if err := ctx.Err(); err != nil {
		return models.Competition{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.d.competitions[id]
	if !ok {
		return models.Competition{}, store.ErrNotFound
	}
	return copyCompetition(c), nil
}

func (s competitions) List(ctx context.Context) ([]models.Competition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Competition, 0, len(s.db.d.competitions))
	for _, c := range s.db.d.competitions {
		out = append(out, copyCompetition(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s competitions) AddTeam(ctx context.Context, competitionID, teamID primitive.ObjectID) (models.Competition, error) {
	if err := ctx.Err(); err != nil {
		return models.Competition{}, err
	}
	defer s.db.lockWrite(ctx)()
	c, ok := s.db.d.competitions[competitionID]
	if !ok {
		return models.Competition{}, store.ErrNotFound
	}
	if c.Full() {
		return models.Competition{}, store.ErrCapacity
	}
	if c.HasTeam(teamID) {
		return models.Competition{}, store.ErrAlreadyRegistered
	}
	c = copyCompetition(c)
	c.RegisteredTeams = append(c.RegisteredTeams, teamID)
	c.CurrentTeams = len(c.RegisteredTeams)
	c.UpdatedAt = time.Now().UTC()
	s.db.d.competitions[competitionID] = c
	return copyCompetition(c), nil
}

/* -------------------------------------------------------------------------- */
/* Teams                                                                      */
/* -------------------------------------------------------------------------- */

type teams struct{ db *DB }

func copyTeam(t models.Team) models.Team {
	t.Members = append([]models.TeamMember(nil), t.Members...)
	if t.CompetitionID != nil {
		id := *t.CompetitionID
		t.CompetitionID = &id
	}
	return t
}

func (s teams) Create(ctx context.Context, t models.Team) (models.Team, error) {
	if err := ctx.Err(); err != nil {
		return models.Team{}, err
	}
	defer s.db.lockWrite(ctx)()
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	s.db.d.teams[t.ID] = copyTeam(t)
	return copyTeam(t), nil
}

func (s teams) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	if err := ctx.Err(); err != nil {
		return models.Team{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.d.teams[id]
	if !ok {
		return models.Team{}, store.ErrNotFound
	}
	return copyTeam(t), nil
}

func (s teams) List(ctx context.Context, f store.TeamFilter) ([]models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Team{}
	for _, t := range s.db.d.teams {
		if f.SchoolID != nil && t.SchoolID != *f.SchoolID {
			continue
		}
		out = append(out, copyTeam(t))
	}
	sort.Slice(out, func(i, j int) bool { return byNameCI(out[i].NameCI, out[j].NameCI, out[i].ID, out[j].ID) })
	return out, nil
}

func (s teams) Update(ctx context.Context, t models.Team) (models.Team, error) {
	if err := ctx.Err(); err != nil {
		return models.Team{}, err
	}
	defer s.db.lockWrite(ctx)()
	cur, ok := s.db.d.teams[t.ID]
	if !ok {
		return models.Team{}, store.ErrNotFound
	}
	if cur.Version != t.Version {
		return models.Team{}, store.ErrStale
	}
	cur.Name = t.Name
	cur.NameCI = text.Fold(t.Name)
	cur.Description = t.Description
	cur.CaptainID = t.CaptainID
	cur.Members = append([]models.TeamMember(nil), t.Members...)
	cur.IsActive = t.IsActive
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	s.db.d.teams[t.ID] = cur
	return copyTeam(cur), nil
}

/* -------------------------------------------------------------------------- */
/* Schools                                                                    */
/* -------------------------------------------------------------------------- */

type schools struct{ db *DB }

func (s schools) Create(ctx context.Context, sc models.School) (models.School, error) {
	if err := ctx.Err(); err != nil {
		return models.School{}, err
	}
	defer s.db.lockWrite(ctx)()
	sc.NameCI = text.Fold(sc.Name)
	for _, ex := range s.db.d.schools {
		if ex.Slug == sc.Slug || ex.NameCI == sc.NameCI {
			return models.School{}, store.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	sc.ID = primitive.NewObjectID()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	s.db.d.schools[sc.ID] = sc
	return sc, nil
}

func (s schools) GetByID(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	if err := ctx.Err(); err != nil {
		return models.School{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.d.schools[id]
	if !ok {
		return models.School{}, store.ErrNotFound
	}
	return sc, nil
}

func (s schools) GetBySlug(ctx context.Context, slug string) (models.School, error) {
	if err := ctx.Err(); err != nil {
		return models.School{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, sc := range s.db.d.schools {
		if sc.Slug == slug {
			return sc, nil
		}
	}
	return models.School{}, store.ErrNotFound
}

func (s schools) ExistsByNameOrAdminEmail(ctx context.Context, name, adminEmail string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ci := text.Fold(name)
	for _, sc := range s.db.d.schools {
		if sc.NameCI == ci || sc.AdminEmail == adminEmail {
			return true, nil
		}
	}
	return false, nil
}

func (s schools) List(ctx context.Context, p store.Page) ([]models.School, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	all := make([]models.School, 0, len(s.db.d.schools))
	for _, sc := range s.db.d.schools {
		all = append(all, sc)
	}
	s.db.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return byNameCI(all[i].NameCI, all[j].NameCI, all[i].ID, all[j].ID) })
	limit := p.Limit
	if limit <= 0 {
		limit = len(all)
	}

	switch {
	case p.Before != "":
		c, ok := wafflemongo.DecodeCursor(p.Before)
		var window []models.School
		for _, sc := range all {
			if !ok || byNameCI(sc.NameCI, c.CI, sc.ID, c.ID) {
				window = append(window, sc)
			}
		}
		if len(window) > limit+1 {
			window = window[len(window)-(limit+1):]
		}
		return window, nil
	case p.After != "":
		c, ok := wafflemongo.DecodeCursor(p.After)
		out := []models.School{}
		for _, sc := range all {
			if !ok || byNameCI(c.CI, sc.NameCI, c.ID, sc.ID) {
				out = append(out, sc)
				if len(out) == limit+1 {
					break
				}
			}
		}
		return out, nil
	}
	if len(all) > limit+1 {
		all = all[:limit+1]
	}
	return all, nil
}

func (s schools) SetVerified(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	if err := ctx.Err(); err != nil {
		return models.School{}, err
	}
	defer s.db.lockWrite(ctx)()
	sc, ok := s.db.d.schools[id]
	if !ok {
		return models.School{}, store.ErrNotFound
	}
	sc.IsVerified = true
	sc.UpdatedAt = time.Now().UTC()
	s.db.d.schools[id] = sc
	return sc, nil
}

func (s schools) IncrementMembers(ctx context.Context, id primitive.ObjectID, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lockWrite(ctx)()
	sc, ok := s.db.d.schools[id]
	if !ok {
		return store.ErrNotFound
	}
	sc.MemberCount += delta
	s.db.d.schools[id] = sc
	return nil
}

/* -------------------------------------------------------------------------- */
/* Users                                                                      */
/* -------------------------------------------------------------------------- */

type users struct{ db *DB }

func (s users) Create(ctx context.Context, u models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	defer s.db.lockWrite(ctx)()
	u.Email = normalize.Email(u.Email)
	for _, ex := range s.db.d.users {
		if ex.Email == u.Email {
			return models.User{}, store.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.CreatedAt = now
	u.UpdatedAt = now
	s.db.d.users[u.ID] = u
	return u, nil
}

func (s users) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.d.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s users) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	email = normalize.Email(email)
	for _, u := range s.db.d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s users) List(ctx context.Context, f store.UserFilter) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.User{}
	for _, u := range s.db.d.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.SchoolID != nil && (u.SchoolID == nil || *u.SchoolID != *f.SchoolID) {
			continue
		}
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return byNameCI(out[i].NameCI, out[j].NameCI, out[i].ID, out[j].ID) })
	return out, nil
}

func (s users) Update(ctx context.Context, u models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	defer s.db.lockWrite(ctx)()
	cur, ok := s.db.d.users[u.ID]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	cur.Name = normalize.Name(u.Name)
	cur.NameCI = text.Fold(cur.Name)
	cur.Image = u.Image
	cur.Role = u.Role
	cur.SchoolID = u.SchoolID
	cur.Verified = u.Verified
	cur.IsActive = u.IsActive
	cur.UpdatedAt = time.Now().UTC()
	s.db.d.users[u.ID] = cur
	return cur, nil
}

/* -------------------------------------------------------------------------- */
/* Audit log                                                                  */
/* -------------------------------------------------------------------------- */

type auditLog struct{ db *DB }

func (s auditLog) Append(ctx context.Context, e models.AuditEntry) (models.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return models.AuditEntry{}, err
	}
	defer s.db.lockWrite(ctx)()
	if s.db.FailAudit != nil {
		return models.AuditEntry{}, s.db.FailAudit
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.db.d.audit = append(s.db.d.audit, e)
	return e, nil
}

// Recent returns entries newest first. Entries with equal timestamps keep
// reverse insertion order.
func (s auditLog) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.AuditEntry, 0, len(s.db.d.audit))
	for i := len(s.db.d.audit) - 1; i >= 0; i-- {
		out = append(out, s.db.d.audit[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

/* -------------------------------------------------------------------------- */
/* Posts & comments                                                           */
/* -------------------------------------------------------------------------- */

type posts struct{ db *DB }

func (s posts) Create(ctx context.Context, p models.Post) (models.Post, error) {
	if err := ctx.Err(); err != nil {
		return models.Post{}, err
	}
	defer s.db.lockWrite(ctx)()
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CommentCount = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	s.db.d.posts[p.ID] = p
	return p, nil
}

func (s posts) GetByID(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	if err := ctx.Err(); err != nil {
		return models.Post{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.d.posts[id]
	if !ok {
		return models.Post{}, store.ErrNotFound
	}
	return p, nil
}

func (s posts) List(ctx context.Context, limit int) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Post, 0, len(s.db.d.posts))
	for _, p := range s.db.d.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s posts) IncrementComments(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lockWrite(ctx)()
	p, ok := s.db.d.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.CommentCount++
	s.db.d.posts[id] = p
	return nil
}

type comments struct{ db *DB }

func (s comments) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return models.Comment{}, err
	}
	defer s.db.lockWrite(ctx)()
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.db.d.comments = append(s.db.d.comments, c)
	return c, nil
}

func (s comments) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.db.d.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

// byNameCI orders by folded name, then id, matching the Mongo keyset sort.
func byNameCI(a, b string, aID, bID primitive.ObjectID) bool {
	if c := strings.Compare(a, b); c != 0 {
		return c < 0
	}
	return aID.Hex() < bID.Hex()
}
