// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_url is not configured.
	Redis *redis.Client

	// RateCounter backs every rate limiter. It is Redis-backed when Redis is
	// configured and in-process otherwise; Shutdown stops it.
	RateCounter ratelimit.Counter
}

// newRateCounter picks the counter implementation for rdb.
func newRateCounter(rdb *redis.Client) ratelimit.Counter {
	if rdb != nil {
		return ratelimit.NewRedisCounter(rdb, "robohub:rl:")
	}
	return ratelimit.NewMemoryCounter(time.Minute)
}
