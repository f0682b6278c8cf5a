package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSecret = "omnipizza-dev-secret-change-me"

// Config holds server configuration.
type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	SecretKey      string
	TokenTTL       time.Duration
	CORSOrigins    []string
	FixturesPath   string
	LoginRateLimit float64
	RandomSeed     uint64

	// Optional overrides of the fixture-declared behavior effects.
	SlowProfileDelay *time.Duration
	FlakyFailureRate *float64
}

// Load loads configuration from environment variables. Malformed values
// fall back to the default.
func Load() *Config {
	cfg := &Config{
		Port:           getenv("PORT", "8000"),
		Environment:    getenv("ENVIRONMENT", "development"),
		LogLevel:       strings.ToUpper(getenv("LOG_LEVEL", "INFO")),
		SecretKey:      getenv("SECRET_KEY", defaultSecret),
		TokenTTL:       30 * time.Minute,
		CORSOrigins:    []string{"*"},
		FixturesPath:   os.Getenv("FIXTURES_PATH"),
		LoginRateLimit: 20,
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TokenTTL = d
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 {
			cfg.LoginRateLimit = n
		}
	}
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.RandomSeed = n
		}
	}
	if v := os.Getenv("SLOW_PROFILE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.SlowProfileDelay = &d
		}
	}
	if v := os.Getenv("FLAKY_FAILURE_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r >= 0 && r <= 1 {
			cfg.FlakyFailureRate = &r
		}
	}
	return cfg
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// UsesDefaultSecret is true when SECRET_KEY was not provided.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == defaultSecret
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
