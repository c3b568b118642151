// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). Framework settings such as
// ports, TLS, logging and CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis backs the shared rate-limit counters. Blank uses in-process counters.
	RedisURL string

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: robohub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Audit log
	AuditLogMirror bool // also write each entry to the structured log
	AuditPageSize  int  // entries returned when no limit is given

	// Rate limits, per client IP
	SignupRateLimit    int
	SignupRateWindow   time.Duration
	CommentRateLimit   int
	CommentRateWindow  time.Duration
	RegisterRateLimit  int
	RegisterRateWindow time.Duration

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool

	// Email of the platform admin (promoted or created on startup)
	BootstrapAdminEmail string

	// Database operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
