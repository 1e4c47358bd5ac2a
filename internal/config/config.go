// Package config reads server settings from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/notekeeper/internal/auth"
)

// StoreStartup controls what happens when the store is unreachable at boot.
type StoreStartup string

const (
	StartupFailFast StoreStartup = "fail-fast"
	StartupDegrade  StoreStartup = "degrade"
)

// minSecretLen matches the check in auth.NewTokenServiceWithTTL.
const minSecretLen = 16

// Config holds runtime settings for the notes server.
type Config struct {
	DatabaseURL  string
	DatabaseName string
	Port         int
	JWTSecret    string
	TokenTTL     time.Duration
	RequireToken bool
	BcryptCost   int
	StoreStartup StoreStartup
	CORSOrigins  []string
	StaticDir    string
	LogLevel     slog.Level

	// GeneratedSecret is true when JWT_SECRET was unset and a random key was
	// made for this process. Tokens then stop validating after a restart.
	GeneratedSecret bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseURL = "sqlite://data/notes.db"
	c.DatabaseName = "notes"
	c.Port = 3000
	c.TokenTTL = auth.DefaultTokenTTL
	c.RequireToken = false
	c.BcryptCost = auth.DefaultCost
	c.StoreStartup = StartupFailFast
	c.CORSOrigins = []string{"*"}
	c.StaticDir = ""
	c.LogLevel = slog.LevelInfo
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from defaults overlaid with values returned by
// getenv. Every invalid value is reported in the returned error.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	var errs []error
	fail := func(key, value, reason string) {
		errs = append(errs, fmt.Errorf("%s=%q: %s", key, value, reason))
	}

	if v := getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	} else if v := getenv("MONGODB_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := getenv("DATABASE_NAME"); v != "" {
		cfg.DatabaseName = v
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			fail("PORT", v, "must be an integer between 1 and 65535")
		} else {
			cfg.Port = port
		}
	}

	if v := getenv("JWT_SECRET"); v != "" {
		if len(v) < minSecretLen {
			fail("JWT_SECRET", "<redacted>", fmt.Sprintf("must be at least %d characters", minSecretLen))
		}
		cfg.JWTSecret = v
	} else {
		secret, err := randomSecret()
		if err != nil {
			errs = append(errs, fmt.Errorf("generating JWT secret: %w", err))
		}
		cfg.JWTSecret = secret
		cfg.GeneratedSecret = true
	}

	if v := getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			fail("TOKEN_TTL", v, "must be a positive duration such as 24h")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if v := getenv("REQUIRE_TOKEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail("REQUIRE_TOKEN", v, "must be true or false")
		} else {
			cfg.RequireToken = b
		}
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < 4 || cost > 31 {
			fail("BCRYPT_COST", v, "must be an integer between 4 and 31")
		} else {
			cfg.BcryptCost = cost
		}
	}

	if v := getenv("STORE_STARTUP"); v != "" {
		switch StoreStartup(v) {
		case StartupFailFast, StartupDegrade:
			cfg.StoreStartup = StoreStartup(v)
		default:
			fail("STORE_STARTUP", v, "must be fail-fast or degrade")
		}
	}

	if v := getenv("CORS_ORIGINS"); v != "" {
		origins := splitList(v)
		if len(origins) == 0 {
			fail("CORS_ORIGINS", v, "must list at least one origin")
		} else {
			cfg.CORSOrigins = origins
		}
	}

	cfg.StaticDir = getenv("STATIC_DIR")

	if v := getenv("LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			fail("LOG_LEVEL", v, "must be debug, info, warn or error")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
