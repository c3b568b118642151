// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/authutil"
	"github.com/dalemusser/robohub/internal/app/system/normalize"
	"github.com/dalemusser/robohub/internal/app/system/timeouts"
	"github.com/dalemusser/robohub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   timeouts.Ping(),
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	users := mongoStores(deps.MongoDatabase, logger).Users
	return ensureBootstrapAdmin(ctx, users, appCfg.BootstrapAdminEmail, logger)
}

// ensureBootstrapAdmin makes sure email belongs to an active, verified
// platform admin. An existing account is promoted; otherwise one is created
// with an unusable random password.
func ensureBootstrapAdmin(ctx context.Context, users store.Users, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	if email == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleAdmin && u.IsActive && u.Verified && u.SchoolID == nil {
			return nil
		}
		u.Role = models.RoleAdmin
		u.SchoolID = nil
		u.IsActive = true
		u.Verified = true
		if _, err := users.Update(ctx, u); err != nil {
			return fmt.Errorf("promote bootstrap admin: %w", err)
		}
		logger.Info("promoted bootstrap admin", zap.String("email", email))
		return nil

	case errors.Is(err, store.ErrNotFound):
		hash, err := authutil.HashPassword(uuid.NewString())
		if err != nil {
			return fmt.Errorf("hash bootstrap admin password: %w", err)
		}
		_, err = users.Create(ctx, models.User{
			Name:         "Administrator",
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			Verified:     true,
			IsActive:     true,
		})
		if err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}
		logger.Info("created bootstrap admin", zap.String("email", email))
		return nil

	default:
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}
}
