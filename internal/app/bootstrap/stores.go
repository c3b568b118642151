// internal/app/bootstrap/stores.go
package bootstrap

import (
	"github.com/dalemusser/robohub/internal/app/store"
	auditstore "github.com/dalemusser/robohub/internal/app/store/audit"
	commentstore "github.com/dalemusser/robohub/internal/app/store/comments"
	competitionstore "github.com/dalemusser/robohub/internal/app/store/competitions"
	poststore "github.com/dalemusser/robohub/internal/app/store/posts"
	schoolstore "github.com/dalemusser/robohub/internal/app/store/schools"
	teamstore "github.com/dalemusser/robohub/internal/app/store/teams"
	userstore "github.com/dalemusser/robohub/internal/app/store/users"
	"github.com/dalemusser/robohub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// mongoStores builds the MongoDB-backed store set used by every service.
func mongoStores(db *mongo.Database, logger *zap.Logger) store.Set {
	return store.Set{
		Competitions: competitionstore.New(db),
		Teams:        teamstore.New(db),
		Schools:      schoolstore.New(db),
		Users:        userstore.New(db),
		AuditLog:     auditstore.New(db),
		Posts:        poststore.New(db),
		Comments:     commentstore.New(db),
		Tx:           txn.NewRunner(db, logger),
	}
}
