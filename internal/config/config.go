// Package config loads server settings from the environment.
//
// main loads a .env file (godotenv) first, so values there behave like real
// environment variables.
package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/hkdf"

	"github.com/robalobadob/geoquiz/internal/challenge"
)

const devSecret = "dev_secret_change_me"

// Config holds every tunable of the server.
type Config struct {
	Port         string `env:"PORT"          envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production   bool   `env:"PRODUCTION"    envDefault:"false"`

	SessionSecret  string `env:"SESSION_SECRET"   envDefault:"dev_secret_change_me"`
	SessionTTLDays int    `env:"SESSION_TTL_DAYS" envDefault:"180"`
	DailySalt      string `env:"DAILY_SALT"       envDefault:"local_dev_salt"`

	CountriesFile string `env:"COUNTRIES_FILE"`
	CountriesDB   string `env:"COUNTRIES_DB"`

	Generator Generator `envPrefix:"GENERATOR_"`
}

// Generator mirrors the challenge generator options.
// The answer band is fixed at [challenge.MinAnswers, challenge.MaxAnswers].
type Generator struct {
	MaxAttempts      int    `env:"MAX_ATTEMPTS"       envDefault:"100"`
	LetterCase       string `env:"LETTER_CASE"        envDefault:"insensitive"`
	DistinctFilters  bool   `env:"DISTINCT_FILTERS"   envDefault:"false"`
	IncludeMembersOf bool   `env:"INCLUDE_MEMBERS_OF" envDefault:"false"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	g := c.Generator
	if g.MaxAttempts < 1 {
		return fmt.Errorf("GENERATOR_MAX_ATTEMPTS must be positive, got %d", g.MaxAttempts)
	}
	if _, err := challenge.ParseLetterCase(g.LetterCase); err != nil {
		return fmt.Errorf("GENERATOR_LETTER_CASE: %w", err)
	}
	if c.Production && c.SessionSecret == devSecret {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	return nil
}

// SessionTTL is how long session cookies and idle sessions live.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

// SessionKey is the HS256 key for session tokens.
func (c Config) SessionKey() []byte { return DeriveKey(c.SessionSecret, "geoquiz session token") }

// DailyKey is the HMAC key behind the daily challenge seed.
func (c Config) DailyKey() []byte { return DeriveKey(c.DailySalt, "geoquiz daily seed") }

// GeneratorOptions converts the generator settings into challenge options.
func (c Config) GeneratorOptions() []challenge.Option {
	g := c.Generator
	lc, _ := challenge.ParseLetterCase(g.LetterCase)
	return []challenge.Option{
		challenge.WithMaxAttempts(g.MaxAttempts),
		challenge.WithLetterCase(lc),
		challenge.WithDistinctFilters(g.DistinctFilters),
		challenge.WithMembersOf(g.IncludeMembersOf),
	}
}

// DeriveKey expands secret into a 32-byte key bound to label (HKDF-SHA256).
func DeriveKey(secret, label string) []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(label))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashLen bytes
		panic(err)
	}
	return key
}
