// internal/app/services/accounts/accounts.go
//
// Package accounts handles self-service sign-up and password sign-in.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/authutil"
	"github.com/dalemusser/robohub/internal/app/system/inputval"
	"github.com/dalemusser/robohub/internal/app/system/normalize"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// SignupInput is the sign-up form.
type SignupInput struct {
	Name            string `json:"name" validate:"required,min=2,max=50,personname" label:"Name"`
	Email           string `json:"email" validate:"required,email" label:"Email"`
	Password        string `json:"password" validate:"required,strongpassword" label:"Password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" label:"Password confirmation"`
	Role            string `json:"role" validate:"required,signuprole" label:"Role"`
	SchoolCode      string `json:"schoolCode,omitempty" validate:"omitempty,max=100" label:"School code"`
	AgreeToTerms    bool   `json:"agreeToTerms" validate:"eq=true" label:"Terms and conditions"`
}

var (
	errEmailExists        = apperr.Conflict(apperr.CodeEmailExists, "An account with this email already exists.")
	errInvalidCredentials = apperr.New(apperr.KindUnauthorized, apperr.CodeInvalidCredentials, "Invalid email or password.")
	errInactive           = apperr.Forbidden(apperr.CodeAccountInactive, "This account has been deactivated.")
	errNotVerified        = apperr.Forbidden(apperr.CodeNotVerified, "This account has not been verified yet.")
)

// Service owns account creation and credential checks.
type Service struct {
	users   store.Users
	schools store.Schools
	tx      store.Tx
	log     *zap.Logger
}

// New creates a Service.
func New(users store.Users, schools store.Schools, tx store.Tx, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, schools: schools, tx: tx, log: log}
}

// Signup creates an unverified, active account. A school code links the
// user to that school and bumps its member count in the same unit.
func (s *Service) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.SchoolCode = strings.TrimSpace(in.SchoolCode)

	if err := inputval.Validate(in).Err(); err != nil {
		return models.User{}, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return models.User{}, errEmailExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.Internal(err)
	}

	role, _ := models.ParseRole(in.Role)
	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Role:     role,
		IsActive: true,
	}

	var school *models.School
	if in.SchoolCode != "" {
		sc, err := s.schools.GetBySlug(ctx, slug.Make(in.SchoolCode))
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, apperr.Validation("School code not found.", map[string]string{"schoolCode": "School code not found."})
		}
		if err != nil {
			return models.User{}, apperr.Internal(err)
		}
		school = &sc
		user.SchoolID = &sc.ID
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	user.PasswordHash = hash

	var created models.User
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		u, err := s.users.Create(ctx, user)
		if err != nil {
			return err
		}
		if school != nil {
			if err := s.schools.IncrementMembers(ctx, school.ID, 1); err != nil {
				return err
			}
		}
		created = u
		return nil
	})
	if errors.Is(err, store.ErrDuplicate) {
		return models.User{}, errEmailExists
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}

	s.log.Info("account created",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", string(created.Role)),
		zap.Bool("school_linked", school != nil))
	created.PasswordHash = ""
	return created, nil
}

// Authenticate checks email and password. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return models.User{}, apperr.MissingFields("Email and password are required.")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, errInvalidCredentials
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	if u.PasswordHash == "" || !authutil.CheckPassword(password, u.PasswordHash) {
		return models.User{}, errInvalidCredentials
	}
	if !u.IsActive {
		return models.User{}, errInactive
	}
	if !u.Verified && u.Role != models.RoleAdmin && u.Role != models.RoleSchoolAdmin {
		return models.User{}, errNotVerified
	}

	u.PasswordHash = ""
	return u, nil
}
