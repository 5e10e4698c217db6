package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port              string
	Env               string
	LogLevel          string
	CORSAllowedOrigin string
	// TrustedProxies are the reverse proxies allowed to set X-Forwarded-For.
	TrustedProxies    []string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	MigrationsPath    string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration
	JWTRefreshDur    time.Duration
	CookieSecure     bool

	// Rate limiting on the auth endpoints
	RateLimitCapacity int
	RateLimitWindow   time.Duration
	RateLimitIdleTTL  time.Duration
	RateLimitBackend  string
	RedisURL          string

	// Login lockout
	MaxFailedLogins int
	LockoutDuration time.Duration

	// Plaid
	PlaidClientID   string
	PlaidSecret     string
	PlaidEnv        string
	PlaidBaseURL    string
	PlaidTimeout    time.Duration
	PlaidClientName string

	// Transaction sync
	SyncEnabled  bool
	SyncSchedule string
	SyncMaxPages int
	SyncPageSize int
	// SyncAPIKey guards POST /api/internal/sync/run; empty disables it.
	SyncAPIKey   string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", ""),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "goze"),
		DBPassword: getEnv("DB_PASSWORD", "goze"),
		DBName:     getEnv("DB_NAME", "goze"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "migrations"),

		JWTSecret:        getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur: getEnvDuration("JWT_EXPIRES_IN", time.Hour),
		JWTRefreshDur:    getEnvDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		CookieSecure:     getEnvBool("COOKIE_SECURE", true),

		RateLimitCapacity: getEnvInt("RATE_LIMIT_CAPACITY", 5),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitIdleTTL:  getEnvDuration("RATE_LIMIT_IDLE_TTL", 30*time.Minute),
		RateLimitBackend:  getEnv("RATE_LIMIT_BACKEND", "memory"),
		RedisURL:          getEnv("REDIS_URL", ""),

		MaxFailedLogins: getEnvInt("LOGIN_MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration: getEnvDuration("LOGIN_LOCKOUT_DURATION", 30*time.Minute),

		PlaidClientID:   getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:     getEnv("PLAID_SECRET", ""),
		PlaidEnv:        getEnv("PLAID_ENV", "sandbox"),
		PlaidBaseURL:    getEnv("PLAID_BASE_URL", ""),
		PlaidTimeout:    getEnvDuration("PLAID_TIMEOUT", 30*time.Second),
		PlaidClientName: getEnv("PLAID_CLIENT_NAME", "Goze Financial App"),

		SyncEnabled:  getEnvBool("SYNC_ENABLED", true),
		SyncSchedule: getEnv("SYNC_SCHEDULE", "0 0 * * *"),
		SyncMaxPages: getEnvInt("SYNC_MAX_PAGES", 50),
		SyncPageSize: getEnvInt("SYNC_PAGE_SIZE", 100),
		SyncAPIKey:   getEnv("SYNC_API_KEY", ""),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return b
}
