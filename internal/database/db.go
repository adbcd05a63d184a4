package database

import (
	"context"
	"fmt"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/config"
)

type DB struct {
	*sqlx.DB
}

func Connect(databaseURL string) (*DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	return &DB{db}, nil
}

// ConnectWithRetry keeps dialing until the database accepts connections or
// attempts run out. Managed Postgres instances often come up after the app.
func ConnectWithRetry(ctx context.Context, databaseURL string, attempts uint) (*DB, error) {
	var db *DB
	err := retry.Do(
		func() error {
			var err error
			db, err = Connect(databaseURL)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(config.DBConnectRetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("database not ready, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate creates the licenses table if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.DBMigrateTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS licenses (
	account_number    BIGINT PRIMARY KEY,
	account_name      TEXT NOT NULL DEFAULT '',
	broker_name       TEXT NOT NULL DEFAULT '',
	server_name       TEXT NOT NULL DEFAULT '',
	account_currency  TEXT NOT NULL DEFAULT '',
	account_balance   DOUBLE PRECISION NOT NULL DEFAULT 0,
	account_leverage  INTEGER NOT NULL DEFAULT 0,
	account_type      TEXT NOT NULL DEFAULT 'unknown',
	ea_name           TEXT NOT NULL DEFAULT '',
	ea_version        TEXT NOT NULL DEFAULT '',
	mt5_build         INTEGER,
	subscription_type TEXT NOT NULL,
	status            TEXT NOT NULL,
	expires_at        TIMESTAMPTZ NOT NULL,
	license_key       TEXT UNIQUE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_seen         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	validation_count  BIGINT NOT NULL DEFAULT 0,
	client_ip         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status);
CREATE INDEX IF NOT EXISTS idx_licenses_created_at ON licenses(created_at DESC);
`
