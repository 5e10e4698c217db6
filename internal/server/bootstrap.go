package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"goze/internal/config"
	"goze/internal/database"
	"goze/internal/handlers"
	"goze/internal/logger"
	"goze/internal/plaid"
	"goze/internal/ratelimit"
	"goze/internal/scheduler"
	"goze/internal/services"
	"goze/internal/token"
)

const (
	limiterSweepInterval = 5 * time.Minute
	redisKeyPrefix       = "goze:ratelimit:"
)

// Bootstrap connects to the database, applies migrations and builds the App
// from cfg. The returned cleanup releases the connections; the in-memory
// limiter's sweeper stops with ctx.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	log := logger.Named("bootstrap")

	dbManager, err := database.NewManager(ctx, database.NewConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	cleanups := []func(){func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if err := dbManager.RunMigrations(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.JWTExpirationDur, cfg.JWTRefreshDur)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closeLimiter)

	baseURL := cfg.PlaidBaseURL
	if baseURL == "" {
		baseURL = plaid.BaseURL(cfg.PlaidEnv)
	}
	client := plaid.NewClient(baseURL, cfg.PlaidClientID, cfg.PlaidSecret, &http.Client{Timeout: cfg.PlaidTimeout})
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Warn("PLAID_CLIENT_ID or PLAID_SECRET is not set; Plaid calls will fail")
	}

	app := NewApp(dbManager.DB(), client, issuer, limiter, Options{
		Lockout:         services.LockoutPolicy{MaxAttempts: cfg.MaxFailedLogins, Duration: cfg.LockoutDuration},
		Cookies:         handlers.CookieConfig{MaxAge: handlers.DefaultCookieConfig.MaxAge, Secure: cfg.CookieSecure},
		PlaidClientName: cfg.PlaidClientName,
		Sync:            scheduler.Config{MaxPages: cfg.SyncMaxPages, PageSize: cfg.SyncPageSize},
		SyncAPIKey:      cfg.SyncAPIKey,
		CORSOrigin:      cfg.CORSAllowedOrigin,
		TrustedProxies:  cfg.TrustedProxies,
	})
	return app, cleanup, nil
}

func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	policy := ratelimit.Policy{Capacity: cfg.RateLimitCapacity, Window: cfg.RateLimitWindow}

	switch strings.ToLower(cfg.RateLimitBackend) {
	case "redis":
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		limiter, err := ratelimit.NewRedisLimiter(rdb, policy, redisKeyPrefix)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		return limiter, func() { _ = rdb.Close() }, nil
	case "memory", "":
		limiter, err := ratelimit.NewMemoryLimiter(policy, ratelimit.WithIdleTTL(cfg.RateLimitIdleTTL))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		go func() { _ = limiter.Run(ctx, limiterSweepInterval) }()
		return limiter, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q (use memory or redis)", cfg.RateLimitBackend)
	}
}
