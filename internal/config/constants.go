package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// Delay between database connection attempts at startup
const DBConnectRetryDelay = 2 * time.Second

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Upper bound for applying the schema at startup
const DBMigrateTimeout = 30 * time.Second

// Timeout for the metrics collector's stats query
const MetricsQueryTimeout = 5 * time.Second

// Default check-in rate limiting, per client IP
const (
	DefaultCheckinRateLimitPerMin = 30
	CheckinRateLimitWindow        = time.Minute
)

// Placeholders stored when the EA does not identify itself
const (
	DefaultEAName    = "Unknown EA"
	DefaultEAVersion = "unknown"
)
