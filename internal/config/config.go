// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration. Secrets and the database pool are
// loaded once at startup and passed explicitly to the components that need
// them; nothing reads the environment after Load returns.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional, empty allowed
	DBHost string
	DBPort string
	DBName string

	JWTSecret        string        // signing secret for access tokens
	JWTRefreshSecret string        // signing secret for refresh tokens
	AccessTTL        time.Duration // access token lifetime (default 15m)
	RefreshTTL       time.Duration // refresh token lifetime (default 7d)
}

// MissingVarsError reports every required variable that was absent, so a
// misconfigured deployment fails once with the full list instead of
// one variable per restart.
type MissingVarsError struct {
	Vars []string
}

func (e *MissingVarsError) Error() string {
	return "config: missing required env vars: " + strings.Join(e.Vars, ", ")
}

// Load reads and validates the configuration eagerly.
func Load() (Config, error) {
	var missing []string
	req := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:              opt("APP_ENV", "dev"),
		Port:             opt("APP_PORT", "8080"),
		DBUser:           req("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           req("DB_HOST"),
		DBPort:           req("DB_PORT"),
		DBName:           req("DB_NAME"),
		JWTSecret:        req("JWT_SECRET"),
		JWTRefreshSecret: req("JWT_REFRESH_SECRET"),
	}

	accessMin, err := optInt("ACCESS_TOKEN_TTL_MIN", 15)
	if err != nil {
		return Config{}, err
	}
	refreshDays, err := optInt("REFRESH_TOKEN_TTL_DAYS", 7)
	if err != nil {
		return Config{}, err
	}
	cfg.AccessTTL = time.Duration(accessMin) * time.Minute
	cfg.RefreshTTL = time.Duration(refreshDays) * 24 * time.Hour

	if len(missing) > 0 {
		return Config{}, &MissingVarsError{Vars: missing}
	}
	return cfg, nil
}

func opt(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func optInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %q", key, v)
	}
	return n, nil
}
