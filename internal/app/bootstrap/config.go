// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dalemusser/robohub/internal/app/system/redisclient"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// minSessionKeyLen is the shortest signing key accepted outside dev.
const minSessionKeyLen = 32

// appConfigKeys defines the configuration keys for RoboHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ROBOHUB_MONGO_URI, ROBOHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "robohub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "redis_url", Default: "", Desc: "Redis URL for shared rate-limit counters (blank means in-process)"},
	{Name: "session_key", Default: "", Desc: "Session signing key (at least 32 bytes; generated per process outside prod when blank)"},
	{Name: "session_name", Default: "robohub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Audit log
	{Name: "audit_log_mirror", Default: true, Desc: "Mirror audit entries to the structured log"},
	{Name: "audit_page_size", Default: 50, Desc: "Audit entries returned when no limit is given (max 100)"},

	// Rate limits
	{Name: "signup_rate_limit", Default: 5, Desc: "Signups allowed per IP per window"},
	{Name: "signup_rate_window", Default: "10m", Desc: "Signup rate-limit window"},
	{Name: "comment_rate_limit", Default: 10, Desc: "Comments allowed per IP per window"},
	{Name: "comment_rate_window", Default: "1m", Desc: "Comment rate-limit window"},
	{Name: "register_rate_limit", Default: 20, Desc: "Competition registrations allowed per IP per window"},
	{Name: "register_rate_window", Default: "1m", Desc: "Registration rate-limit window"},
	{Name: "trust_proxy", Default: false, Desc: "Read the client IP from forwarding headers (only behind a trusted proxy)"},

	// Admin bootstrap
	{Name: "bootstrap_admin_email", Default: "", Desc: "Email of the platform admin (promotes/creates on startup)"},

	// Database timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-step operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for index builds and bulk work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, ROBOHUB_* for app) and
// command-line flags with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROBOHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		RedisURL:         appValues.String("redis_url"),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		AuditLogMirror: appValues.Bool("audit_log_mirror"),
		AuditPageSize:  appValues.Int("audit_page_size"),

		SignupRateLimit:    appValues.Int("signup_rate_limit"),
		SignupRateWindow:   appValues.Duration("signup_rate_window", 10*time.Minute),
		CommentRateLimit:   appValues.Int("comment_rate_limit"),
		CommentRateWindow:  appValues.Duration("comment_rate_window", time.Minute),
		RegisterRateLimit:  appValues.Int("register_rate_limit"),
		RegisterRateWindow: appValues.Duration("register_rate_window", time.Minute),
		TrustProxy:         appValues.Bool("trust_proxy"),

		BootstrapAdminEmail: appValues.String("bootstrap_admin_email"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	// Outside prod a blank key gets a random one, so sessions end on restart.
	if appCfg.SessionKey == "" && coreCfg.Env != "prod" {
		appCfg.SessionKey = hex.EncodeToString(securecookie.GenerateRandomKey(minSessionKeyLen))
		logger.Warn("session_key not set; using a random per-process key")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It checks the MongoDB URI format and Redis URL syntax before any
// connection is attempted, and rejects short session keys.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if err := redisclient.ValidateURL(appCfg.RedisURL); err != nil {
		logger.Error("invalid Redis URL", zap.Error(err))
		return fmt.Errorf("invalid Redis URL: %w", err)
	}

	if len(appCfg.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d bytes", minSessionKeyLen)
	}

	for name, v := range map[string]int{
		"signup_rate_limit":   appCfg.SignupRateLimit,
		"comment_rate_limit":  appCfg.CommentRateLimit,
		"register_rate_limit": appCfg.RegisterRateLimit,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	return nil
}
