// internal/app/system/auditlog/recorder.go
//
// Package auditlog records privileged administrative actions. Entries are
// persisted through the store's append-only AuditLog and optionally
// mirrored to the structured log.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/robohub/internal/app/store"
	"github.com/dalemusser/robohub/internal/app/system/metrics"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Page size bounds for Recent.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Config holds audit logging configuration.
type Config struct {
	// Mirror also writes every persisted entry to zap with audit=true.
	Mirror bool
	// PageSize is the number of entries returned when no limit is given.
	PageSize int
}

// Actor and Target identify the two users of an entry.
type Actor struct {
	ID    primitive.ObjectID
	Email string
}

type Target struct {
	ID    primitive.ObjectID
	Email string
}

// Recorder appends audit entries.
type Recorder struct {
	store  store.AuditLog
	zapLog *zap.Logger
	config Config
	now    func() time.Time
}

// New creates a Recorder over s.
func New(s store.AuditLog, zapLog *zap.Logger, config Config) *Recorder {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	if config.PageSize <= 0 || config.PageSize > MaxLimit {
		config.PageSize = DefaultLimit
	}
	return &Recorder{store: s, zapLog: zapLog, config: config, now: time.Now}
}

// Record persists one entry for action. The write error is returned so the
// caller can undo the action it describes.
func (r *Recorder) Record(ctx context.Context, actor Actor, action string, target Target, details string) (models.AuditEntry, error) {
	entry := models.AuditEntry{
		ID:              primitive.NewObjectID(),
		AdminID:         actor.ID,
		AdminEmail:      actor.Email,
		Action:          action,
		TargetUserID:    target.ID,
		TargetUserEmail: target.Email,
		Details:         details,
		CreatedAt:       r.now().UTC(),
	}

	saved, err := r.store.Append(ctx, entry)
	if err != nil {
		metrics.AuditFailure()
		r.zapLog.Error("failed to store audit entry",
			zap.Error(err),
			zap.String("action", action),
			zap.String("admin_id", actor.ID.Hex()),
			zap.String("target_user_id", target.ID.Hex()),
		)
		return models.AuditEntry{}, fmt.Errorf("append audit entry: %w", err)
	}

	if r.config.Mirror {
		r.zapLog.Info("audit event",
			zap.Bool("audit", true),
			zap.String("action", saved.Action),
			zap.String("admin_id", saved.AdminID.Hex()),
			zap.String("admin_email", saved.AdminEmail),
			zap.String("target_user_id", saved.TargetUserID.Hex()),
			zap.String("target_user_email", saved.TargetUserEmail),
			zap.String("details", saved.Details),
		)
	}
	return saved, nil
}

// Recent returns entries newest first. limit <= 0 selects the configured
// page size; larger values are capped at MaxLimit.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	return r.store.Recent(ctx, ClampLimit(limit, r.config.PageSize))
}

// ClampLimit normalizes a requested page size.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}
