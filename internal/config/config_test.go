package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.AccessTokenTTL() != 8*time.Hour {
		t.Fatalf("expected 8h token ttl, got %s", cfg.Auth.AccessTokenTTL())
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("unexpected port %s", cfg.App.Port)
	}
	if cfg.Auth.CookieName == "" || cfg.Notification.ChannelPrefix == "" {
		t.Fatalf("expected cookie and channel defaults, got %+v %+v", cfg.Auth, cfg.Notification)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("NOTIFY_REDIS_PUBLISH", "false")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.AccessTokenTTL() != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.Auth.AccessTokenTTL())
	}
	if cfg.Notification.RedisPublish {
		t.Fatal("expected redis publish disabled")
	}
	if cfg.App.RequestTimeout() != 0 {
		t.Fatalf("expected no timeout, got %s", cfg.App.RequestTimeout())
	}
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}
