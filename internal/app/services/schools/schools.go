// internal/app/services/schools/schools.go
//
// Package schools handles school onboarding, listing and verification.
package schools

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/app/system/authutil"
	"github.com/dalemusser/robohub/internal/app/system/authz"
	"github.com/dalemusser/robohub/internal/app/system/inputval"
	"github.com/dalemusser/robohub/internal/app/system/normalize"
	"github.com/dalemusser/robohub/internal/app/system/paging"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errSchoolExists = apperr.Conflict(apperr.CodeSchoolExists, "School name or admin email already exists.")

// CreateInput is the public school onboarding form.
type CreateInput struct {
	Name         string `json:"name" validate:"required,min=2,max=120" label:"School name"`
	AdminEmail   string `json:"adminEmail" validate:"required,email" label:"Admin email"`
	Description  string `json:"description,omitempty" validate:"max=1000" label:"Description"`
	Address      string `json:"address,omitempty" validate:"omitempty,min=5,max=300" label:"Address"`
	ContactEmail string `json:"contactEmail,omitempty" validate:"omitempty,email" label:"Contact email"`
	Website      string `json:"website,omitempty" validate:"omitempty,httpurl" label:"Website"`
}

// Page is one keyset window of schools ordered by name.
type Page struct {
	Schools []models.School `json:"schools"`
	Prev    string          `json:"prevCursor,omitempty"`
	Next    string          `json:"nextCursor,omitempty"`
	HasPrev bool            `json:"hasPrev"`
	HasNext bool            `json:"hasNext"`
}

// Service manages schools.
type Service struct {
	schools store.Schools
	users   store.Users
	tx      store.Tx
	log     *zap.Logger
}

// New creates a Service.
func New(schools store.Schools, users store.Users, tx store.Tx, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{schools: schools, users: users, tx: tx, log: log}
}

// Create stores an unverified school and, when no account exists for the
// admin email, a school-admin account bound to it. The account has an
// unusable random password until it is reset.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.School, error) {
	in.Name = normalize.Name(in.Name)
	in.AdminEmail = normalize.Email(in.AdminEmail)
	in.ContactEmail = normalize.Email(in.ContactEmail)
	in.Description = normalize.Text(in.Description)
	in.Address = normalize.Text(in.Address)
	in.Website = strings.TrimSpace(in.Website)

	if err := inputval.Validate(in).Err(); err != nil {
		return models.School{}, err
	}
	code := slug.Make(in.Name)
	if code == "" {
		return models.School{}, apperr.Validation("School name must contain letters or digits.",
			map[string]string{"name": "School name must contain letters or digits."})
	}

	exists, err := s.schools.ExistsByNameOrAdminEmail(ctx, in.Name, in.AdminEmail)
	if err != nil {
		return models.School{}, apperr.Internal(err)
	}
	if exists {
		return models.School{}, errSchoolExists
	}

	var created models.School
	adminCreated := false
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		sc, err := s.schools.Create(ctx, models.School{
			Name:         in.Name,
			Slug:         code,
			Description:  in.Description,
			Address:      in.Address,
			ContactEmail: in.ContactEmail,
			Website:      in.Website,
			AdminEmail:   in.AdminEmail,
		})
		if err != nil {
			return err
		}

		_, err = s.users.GetByEmail(ctx, in.AdminEmail)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			hash, herr := authutil.HashPassword(uuid.NewString())
			if herr != nil {
				return herr
			}
			if _, err := s.users.Create(ctx, models.User{
				Name:         displayName(in.AdminEmail),
				Email:        in.AdminEmail,
				PasswordHash: hash,
				Role:         models.RoleSchoolAdmin,
				SchoolID:     &sc.ID,
				IsActive:     true,
			}); err != nil {
				return err
			}
			adminCreated = true
		default:
			return err
		}
		created = sc
		return nil
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.School{}, errSchoolExists
	}
	if err != nil {
		return models.School{}, apperr.Internal(err)
	}

	s.log.Info("school created",
		zap.String("school_id", created.ID.Hex()),
		zap.String("slug", created.Slug),
		zap.Bool("admin_created", adminCreated))
	return created, nil
}

// List returns one page of schools ordered by name.
func (s *Service) List(ctx context.Context, before, after string, limit int) (Page, error) {
	limit = paging.Limit(limit)
	rows, err := s.schools.List(ctx, store.Page{Before: before, After: after, Limit: limit})
	if err != nil {
		return Page{}, apperr.Internal(err)
	}
	res := paging.TrimPage(&rows, before, after, limit)
	prev, next := paging.BuildCursors(rows,
		func(sc models.School) string { return sc.NameCI },
		func(sc models.School) primitive.ObjectID { return sc.ID })

	p := Page{Schools: rows, HasPrev: res.HasPrev, HasNext: res.HasNext}
	if res.HasPrev {
		p.Prev = prev
	}
	if res.HasNext {
		p.Next = next
	}
	return p, nil
}

// Verify marks a school verified. Admins only.
func (s *Service) Verify(ctx context.Context, actor *auth.SessionUser, schoolID string) (models.School, error) {
	if err := authz.Authorize(actor, authz.VerifySchool, authz.Target{SchoolID: schoolID}).Err(); err != nil {
		return models.School{}, err
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(schoolID))
	if err != nil {
		return models.School{}, apperr.ErrSchoolNotFound
	}
	sc, err := s.schools.SetVerified(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.School{}, apperr.ErrSchoolNotFound
	}
	if err != nil {
		return models.School{}, apperr.Internal(err)
	}
	s.log.Info("school verified", zap.String("school_id", sc.ID.Hex()), zap.String("actor_id", actor.ID))
	return sc, nil
}

// displayName derives a person name from the local part of an email.
// Letter runs become title-cased words; everything else separates them.
// The email arrives lowercased, so case cannot be taken from it.
func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	wordStart := true
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z':
			if wordStart {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			wordStart = false
		case !wordStart:
			b.WriteRune(' ')
			wordStart = true
		}
	}
	name := normalize.Name(b.String())
	if name == "" {
		return "School Admin"
	}
	return name
}
