// internal/app/system/ratelimit/counter.go
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments a fixed-window hit count for key and returns the new
// value with the time left in the window. The window starts on the first hit.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// MemoryCounter keeps windows in process. It is safe for concurrent use.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memWindow
	stop    chan struct{}
	once    sync.Once
}

type memWindow struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounter starts a counter whose expired windows are swept every
// cleanup interval.
func NewMemoryCounter(cleanup time.Duration) *MemoryCounter {
	c := &MemoryCounter{
		windows: make(map[string]*memWindow),
		stop:    make(chan struct{}),
	}
	if cleanup > 0 {
		go c.cleanupLoop(cleanup)
	}
	return c
}

func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		c.windows[key] = &memWindow{count: 1, expiresAt: now.Add(window)}
		return 1, window, nil
	}
	w.count++
	return w.count, w.expiresAt.Sub(now), nil
}

func (c *MemoryCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.windows, key)
	c.mu.Unlock()
	return nil
}

// Close stops the cleanup loop.
func (c *MemoryCounter) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCounter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, w := range c.windows {
				if !now.Before(w.expiresAt) {
					delete(c.windows, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// incrScript sets the expiry only on the hit that creates the key, so the
// window is fixed from the first request. It returns {count, pttl}.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RedisCounter shares windows across instances.
type RedisCounter struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCounter namespaces keys under prefix, e.g. "robohub:rl:".
func NewRedisCounter(client redis.Cmdable, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrScript.Run(ctx, c.client, []string{c.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl <= 0 {
		// Key without an expiry (PTTL -1) or already gone (-2).
		ttl = window
	}
	return res[0], ttl, nil
}

func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
