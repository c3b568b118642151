// internal/app/system/redisclient/redisclient.go
//
// Package redisclient opens the optional Redis connection used for shared
// rate-limit counters.
package redisclient

import (
	"context"
	"fmt"

	"github.com/dalemusser/robohub/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ValidateURL checks that url parses as a Redis URL. An empty url is valid
// and means Redis is not configured.
func ValidateURL(url string) error {
	if url == "" {
		return nil
	}
	if _, err := redis.ParseURL(url); err != nil {
		return fmt.Errorf("parse redis URL: %w", err)
	}
	return nil
}

// Connect returns a pinged client for url, or nil when url is empty.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return client, nil
}
