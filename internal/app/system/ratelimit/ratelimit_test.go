package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	l := New(c, "test", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("4th request should be limited")
	}
	// other keys are independent
	if ok, _ := l.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatal("different key should be allowed")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	l := New(c, "test", 1, 20*time.Millisecond)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("first request should be allowed")
	}
	if ok, _ := l.Allow(ctx, "k"); ok {
		t.Fatal("second request should be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("request after window should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	l := New(c, "test", 1, time.Minute)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k")
	if ok, _ := l.Allow(ctx, "k"); ok {
		t.Fatal("expected limit")
	}
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatal("expected allow after reset")
	}
}

func TestMemoryCounter_Concurrent(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Incr(ctx, "k", time.Minute)
		}()
	}
	wg.Wait()

	n, _, _ := c.Incr(ctx, "k", time.Minute)
	if n != 51 {
		t.Errorf("count = %d, want 51", n)
	}
}

func TestMiddleware(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	l := New(c, "signup", 1, time.Minute)
	h := l.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Errorf("code = %q, want rate_limited", body.Error.Code)
	}
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("counter down")
}
func (failingCounter) Reset(context.Context, string) error { return nil }

func TestMiddleware_FailsOpen(t *testing.T) {
	l := New(failingCounter{}, "signup", 1, time.Minute)
	h := l.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

// fixedCounter reports a constant count and time left.
type fixedCounter struct {
	n    int64
	left time.Duration
}

func (f fixedCounter) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return f.n, f.left, nil
}
func (fixedCounter) Reset(context.Context, string) error { return nil }

func TestMiddleware_RetryAfterIsTimeLeft(t *testing.T) {
	l := New(fixedCounter{n: 9, left: 6500 * time.Millisecond}, "comment", 5, 10*time.Minute)
	h := l.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "7" {
		t.Errorf("Retry-After = %q, want 7", got)
	}
}

func TestMemoryCounter_TimeLeftShrinks(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	ctx := context.Background()

	_, first, _ := c.Incr(ctx, "k", time.Minute)
	if first != time.Minute {
		t.Fatalf("first hit time left = %v, want 1m", first)
	}
	time.Sleep(5 * time.Millisecond)
	_, second, _ := c.Incr(ctx, "k", time.Minute)
	if second >= first || second <= 0 {
		t.Fatalf("second hit time left = %v, want below %v", second, first)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "1"},
		{300 * time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{time.Minute, "60"},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Errorf("retryAfter(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded for ignored", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "10.0.0.1"},
		{"real ip ignored", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.1:80", "10.0.0.1"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	c := NewMemoryCounter(0)
	defer c.Close()
	ll := NewLoginLimiterWithConfig(c, 100, time.Minute, 2, time.Minute)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	for i := 0; i < 2; i++ {
		if err := ll.Check(r, "Coach@Example.com"); err != nil {
			t.Fatalf("attempt %d limited: %v", i+1, err)
		}
	}
	if err := ll.Check(r, "coach@example.com "); err == nil {
		t.Fatal("expected email limit (keys are case/space insensitive)")
	}

	ll.ResetEmail(context.Background(), "coach@example.com")
	if err := ll.Check(r, "coach@example.com"); err != nil {
		t.Fatalf("expected allow after reset, got %v", err)
	}
}

func TestRedisCounter(t *testing.T) {
	url := os.Getenv("ROBOHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ROBOHUB_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	c := NewRedisCounter(client, "robohub:test:"+time.Now().Format("150405.000000")+":")
	t.Cleanup(func() { _ = c.Reset(ctx, "k") })

	for want := int64(1); want <= 3; want++ {
		n, left, err := c.Incr(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if n != want {
			t.Fatalf("Incr = %d, want %d", n, want)
		}
		if left <= 0 || left > time.Minute {
			t.Fatalf("time left = %v, want within the window", left)
		}
	}

	ttl, err := client.PTTL(ctx, c.prefix+"k").Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected ttl %v (err %v)", ttl, err)
	}
}
