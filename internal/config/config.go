// Package config loads process configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/sakif/mood-journal/internal/repository/backend"
)

const minSecretLength = 16

// Storage selects and locates the persistence backend. It is split out so
// that tools which only touch the store can load it without auth secrets.
type Storage struct {
	Driver        string `env:"STORE_DRIVER" default:"sqlite"`
	SQLitePath    string `env:"DB_PATH" default:"data/journal.db"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" default:"mood_journal"`
}

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	Port         int    `env:"PORT" default:"5000"`
	ClientOrigin string `env:"CLIENT_ORIGIN" default:"http://localhost:3000"`

	Storage Storage

	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" default:"2h"`
	CookieSecure bool          `env:"COOKIE_SECURE" default:"false"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	LexiconPath string `env:"LEXICON_PATH"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
	LogFile   string `env:"LOG_FILE"`

	WriteRateLimit float64 `env:"WRITE_RATE_LIMIT" default:"2"`
	WriteRateBurst int     `env:"WRITE_RATE_BURST" default:"10"`
}

func Load() (*Config, error) {
	loadDotEnv()

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStorage reads only the storage settings.
func LoadStorage() (*Storage, error) {
	loadDotEnv()

	var s Storage
	if err := env.Load(&s, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Backend converts the storage settings for backend.Open.
func (s Storage) Backend() backend.Options {
	return backend.Options{
		Driver:        s.Driver,
		SQLitePath:    s.SQLitePath,
		PostgresURL:   s.DatabaseURL,
		MongoURI:      s.MongoURI,
		MongoDatabase: s.MongoDatabase,
	}
}

func (s Storage) validate() error {
	switch s.Driver {
	case backend.DriverSQLite:
	case backend.DriverPostgres:
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case backend.DriverMongo:
		if s.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of sqlite, postgres, mongo; got %q", s.Driver)
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.WriteRateLimit < 0 {
		return errors.New("WRITE_RATE_LIMIT must not be negative")
	}
	if (cfg.GitHubClientID == "") != (cfg.GitHubClientSecret == "") {
		return errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together")
	}
	return cfg.Storage.validate()
}
