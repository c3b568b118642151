// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a multi-document transaction on db's client.
//
// Standalone servers (no replica set) cannot run transactions. When the
// server reports that, Run logs once per call and executes fn without a
// transaction. fn must use the ctx it is given so its operations join the
// session.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			warnFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warnFallback(log, err)
		return fn(ctx)
	}
	return err
}

// Active reports whether ctx carries a Mongo session, i.e. whether writes
// made with it are part of a transaction started by Run.
func Active(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions (standalone mongod, some emulators).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, IllegalOpMsgFlag, OperationNotSupportedInTransaction
			return true
		}
	}
	s := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(s, a) && strings.Contains(s, b) }
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal", "operation")
}

func warnFallback(log *zap.Logger, err error) {
	if log == nil {
		return
	}
	log.Warn("transactions not supported; running without transaction", zap.Error(err))
}

// Runner adapts Run to the store.Tx contract.
type Runner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewRunner returns a Runner bound to db.
func NewRunner(db *mongo.Database, log *zap.Logger) *Runner {
	return &Runner{DB: db, Log: log}
}

// Within runs fn via Run.
func (r *Runner) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.DB, r.Log, fn)
}

// Active reports whether ctx is inside a transaction.
func (r *Runner) Active(ctx context.Context) bool {
	return Active(ctx)
}
