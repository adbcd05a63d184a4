package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL               string `env:"REDIS_URL,required,notEmpty"`
	AdminPasswordHash      string `env:"ADMIN_PASSWORD_HASH"`
	CheckinRateLimitPerMin int    `env:"CHECKIN_RATE_LIMIT_PER_MIN" envDefault:"30"`
	DBConnectAttempts      uint   `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	AutoMigrate            bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	TrustedProxyHops       int    `env:"TRUSTED_PROXY_HOPS" envDefault:"1"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CheckinRateLimit returns the per-IP check-in limit, falling back to the default.
func (c *Config) CheckinRateLimit() int {
	if c.CheckinRateLimitPerMin <= 0 {
		return DefaultCheckinRateLimitPerMin
	}
	return c.CheckinRateLimitPerMin
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.DBConnectAttempts == 0 {
		return fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1")
	}

	if c.TrustedProxyHops < 0 {
		return fmt.Errorf("TRUSTED_PROXY_HOPS must not be negative")
	}

	if isProduction {
		if c.AdminPasswordHash == "" {
			log.Warn().Msg("ADMIN_PASSWORD_HASH is empty in production: admin dashboard API is unauthenticated")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
