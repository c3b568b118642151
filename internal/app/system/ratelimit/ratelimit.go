// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/robohub/internal/app/system/apperr"
	"github.com/dalemusser/robohub/internal/app/system/metrics"
	"github.com/dalemusser/robohub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Limiter allows at most limit hits per key in each fixed window.
// It is safe for concurrent use when its Counter is.
type Limiter struct {
	counter Counter
	name    string        // metrics label and key namespace
	limit   int64         // max requests per window
	window  time.Duration // window duration
}

// New creates a limiter named name over counter.
func New(counter Counter, name string, limit int, window time.Duration) *Limiter {
	return &Limiter{counter: counter, name: name, limit: int64(limit), window: window}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, _, err := l.Hit(ctx, key)
	return ok, err
}

// Hit records a hit for key. When the hit is over the limit it also returns
// how long until the window resets.
func (l *Limiter) Hit(ctx context.Context, key string) (bool, time.Duration, error) {
	n, ttl, err := l.counter.Incr(ctx, l.name+":"+key, l.window)
	if err != nil {
		return false, 0, err
	}
	if n > l.limit {
		metrics.RateLimited(l.name)
		return false, ttl, nil
	}
	return true, 0, nil
}

// Reset clears the window for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.counter.Reset(ctx, l.name+":"+key)
}

// Middleware limits requests by client IP. Counter failures are logged and
// the request proceeds.
func (l *Limiter) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait, err := l.Hit(r.Context(), ClientIP(r))
			if err != nil {
				logger.Error("rate limit check failed", zap.String("limiter", l.name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", retryAfter(wait))
				respond.Error(w, logger, Exceeded("Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Exceeded builds the 429 error returned to clients.
func Exceeded(msg string) *apperr.Error {
	return apperr.New(apperr.KindRateLimited, apperr.CodeRateLimited, msg)
}

// retryAfter rounds d up to whole seconds, with a floor of one.
func retryAfter(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// ignored here; behind a trusted proxy the router runs chi's RealIP first,
// which rewrites RemoteAddr from them.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter tracks both IP-based and email-based limits so that neither
// a single address nor a single account can be hammered.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter uses 10 attempts per IP per minute and 5 attempts per
// email per 5 minutes.
func NewLoginLimiter(counter Counter) *LoginLimiter {
	return NewLoginLimiterWithConfig(counter, 10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(counter Counter, ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:    New(counter, "login_ip", ipLimit, ipWindow),
		email: New(counter, "login_email", emailLimit, emailWindow),
	}
}

// Check verifies if a login attempt should be allowed. A non-nil error is
// the rate-limit rejection to return to the client; counter failures allow
// the attempt.
func (ll *LoginLimiter) Check(r *http.Request, email string) error {
	ctx := r.Context()
	if ok, err := ll.ip.Allow(ctx, ClientIP(r)); err == nil && !ok {
		return Exceeded("Too many login attempts. Please wait a minute before trying again.")
	}

	if key := emailKey(email); key != "" {
		if ok, err := ll.email.Allow(ctx, key); err == nil && !ok {
			return Exceeded("Too many login attempts for this account. Please wait a few minutes.")
		}
	}
	return nil
}

// ResetEmail clears the email window after a successful login.
func (ll *LoginLimiter) ResetEmail(ctx context.Context, email string) {
	if key := emailKey(email); key != "" {
		_ = ll.email.Reset(ctx, key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
