package database

import (
	"fmt"
	"net/url"
	"time"

	"goze/internal/config"
)

// Config describes the postgres connection, its pool, and where the SQL
// migrations live.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	MigrationsPath string
}

// NewConfig builds the database configuration from the application config.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		SSLMode:         cfg.DBSSLMode,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		MigrationsPath:  cfg.MigrationsPath,
	}
}

// DSN is the key/value form handed to the pgx driver. Values are quoted so
// passwords containing spaces or quotes survive.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(c.Host), dsnValue(c.Port), dsnValue(c.User), dsnValue(c.Password), dsnValue(c.DBName), dsnValue(c.SSLMode))
}

// URL is the postgres:// form golang-migrate expects.
func (c *Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// SourceURL points golang-migrate at the migrations directory.
func (c *Config) SourceURL() string {
	path := c.MigrationsPath
	if path == "" {
		path = "migrations"
	}
	return "file://" + path
}

func dsnValue(v string) string {
	plain := v != ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			plain = false
			break
		}
	}
	if plain {
		return v
	}
	quoted := make([]rune, 0, len(v)+2)
	quoted = append(quoted, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			quoted = append(quoted, '\\')
		}
		quoted = append(quoted, r)
	}
	return string(append(quoted, '\''))
}
