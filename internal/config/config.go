package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

const defaultTokenTTLMinutes = 60

// Config holds application configuration values.
type Config struct {
	Secret          string
	Issuer          string
	Audience        string
	TokenTTLMinutes int
	DatabaseDSN     string
	HTTPPort        string
	Development     bool
}

// Load reads configuration from environment variables. The signing secret,
// issuer and audience have no defaults; a missing value is a startup error.
func Load() (Config, error) {
	cfg := Config{
		Secret:   os.Getenv("SECRET"),
		Issuer:   os.Getenv("JWT_ISSUER"),
		Audience: os.Getenv("JWT_AUDIENCE"),
	}

	var missing []string
	if cfg.Secret == "" {
		missing = append(missing, "SECRET")
	}
	if cfg.Issuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	if cfg.Audience == "" {
		missing = append(missing, "JWT_AUDIENCE")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cfg.TokenTTLMinutes = defaultTokenTTLMinutes
	if raw := os.Getenv("TOKEN_TTL_MINUTES"); raw != "" {
		if ttl, err := strconv.Atoi(raw); err == nil && ttl > 0 {
			cfg.TokenTTLMinutes = ttl
		} else {
			log.Printf("invalid TOKEN_TTL_MINUTES value %q, defaulting to %d", raw, defaultTokenTTLMinutes)
		}
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "musicfestival.db"
	}

	cfg.HTTPPort = os.Getenv("HTTP_PORT")
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	cfg.Development = os.Getenv("ENVIRONMENT") == "development"

	return cfg, nil
}
