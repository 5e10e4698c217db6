package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RateLimitCapacity != 5 {
		t.Errorf("expected rate limit capacity 5, got %d", cfg.RateLimitCapacity)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("expected rate limit window 1m, got %s", cfg.RateLimitWindow)
	}
	if cfg.MaxFailedLogins != 5 {
		t.Errorf("expected lockout threshold 5, got %d", cfg.MaxFailedLogins)
	}
	if cfg.LockoutDuration != 30*time.Minute {
		t.Errorf("expected lockout duration 30m, got %s", cfg.LockoutDuration)
	}
	if cfg.SyncSchedule != "0 0 * * *" {
		t.Errorf("expected daily sync schedule, got %q", cfg.SyncSchedule)
	}
	if cfg.DBMaxOpenConns != 25 || cfg.DBMaxIdleConns != 10 {
		t.Errorf("expected pool 25/10, got %d/%d", cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	}
	if cfg.MigrationsPath != "migrations" {
		t.Errorf("expected migrations path %q, got %q", "migrations", cfg.MigrationsPath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "10")
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("PLAID_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RateLimitCapacity != 10 {
		t.Errorf("expected capacity 10, got %d", cfg.RateLimitCapacity)
	}
	if cfg.JWTExpirationDur != 15*time.Minute {
		t.Errorf("expected 15m access token lifetime, got %s", cfg.JWTExpirationDur)
	}
	if cfg.SyncEnabled {
		t.Error("expected sync to be disabled")
	}
	if cfg.PlaidEnv != "production" {
		t.Errorf("expected production plaid env, got %q", cfg.PlaidEnv)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("LOGIN_MAX_FAILED_ATTEMPTS", "-3")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("expected fallback window 1m, got %s", cfg.RateLimitWindow)
	}
	if cfg.MaxFailedLogins != 5 {
		t.Errorf("expected fallback threshold 5, got %d", cfg.MaxFailedLogins)
	}
	if !cfg.CookieSecure {
		t.Error("expected fallback secure cookies")
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.10 ")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" || cfg.TrustedProxies[1] != "192.168.1.10" {
		t.Errorf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}
