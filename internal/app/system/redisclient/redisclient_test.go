package redisclient

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty", "", false},
		{"plain", "redis://localhost:6379/0", false},
		{"with password", "redis://:secret@cache.internal:6380/2", false},
		{"tls", "rediss://cache.internal:6380", false},
		{"wrong scheme", "http://localhost:6379", true},
		{"bad db", "redis://localhost:6379/abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestConnect_EmptyURL(t *testing.T) {
	client, err := Connect(context.Background(), "", zap.NewNop())
	if err != nil || client != nil {
		t.Fatalf("Connect(\"\") = %v, %v; want nil, nil", client, err)
	}
}

func TestConnect_Live(t *testing.T) {
	url := os.Getenv("ROBOHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ROBOHUB_TEST_REDIS_URL not set")
	}
	client, err := Connect(context.Background(), url, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
