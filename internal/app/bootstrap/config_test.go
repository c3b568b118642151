package bootstrap

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "robohub",
		SessionKey:         strings.Repeat("k", minSessionKeyLen),
		SessionName:        "robohub-session",
		SignupRateLimit:    5,
		SignupRateWindow:   10 * time.Minute,
		CommentRateLimit:   10,
		CommentRateWindow:  time.Minute,
		RegisterRateLimit:  20,
		RegisterRateWindow: time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mut     func(c *AppConfig)
		wantErr string
	}{
		{"valid", func(c *AppConfig) {}, ""},
		{"valid with redis", func(c *AppConfig) { c.RedisURL = "redis://localhost:6379/0" }, ""},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://localhost" }, "MongoDB URI"},
		{"bad redis url", func(c *AppConfig) { c.RedisURL = "http://localhost:6379" }, "Redis URL"},
		{"short session key", func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"zero signup limit", func(c *AppConfig) { c.SignupRateLimit = 0 }, "signup_rate_limit"},
		{"negative comment limit", func(c *AppConfig) { c.CommentRateLimit = -1 }, "comment_rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mut(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
