package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/ealicense/license-server-go/internal/errors"
	"github.com/ealicense/license-server-go/internal/model"
)

// LicenseRepository is the keyed record store behind license checks.
// Every method is a single statement, so each write is all-or-nothing.
type LicenseRepository interface {
	// FindByAccount returns nil, nil when the account has no record.
	FindByAccount(ctx context.Context, accountNumber int64) (*model.LicenseRecord, error)
	FindAll(ctx context.Context) ([]model.LicenseRecord, error)
	// Create fails with a DUPLICATE_KEY AppError when the account already exists.
	Create(ctx context.Context, params model.CreateLicenseParams) (*model.LicenseRecord, error)
	// Update fails with a NOT_FOUND AppError when the record is gone.
	Update(ctx context.Context, accountNumber int64, params model.UpdateLicenseParams) (*model.LicenseRecord, error)
	SetStatus(ctx context.Context, accountNumber int64, status model.LicenseStatus, now time.Time) error
	Delete(ctx context.Context, accountNumber int64) error
	Stats(ctx context.Context) (*model.LicenseStats, error)
}

type licenseRepo struct {
	db sqlxDB
}

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func NewLicenseRepository(db *sqlx.DB) LicenseRepository {
	return &licenseRepo{db: db}
}

func (r *licenseRepo) FindByAccount(ctx context.Context, accountNumber int64) (*model.LicenseRecord, error) {
	var rec model.LicenseRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT * FROM licenses WHERE account_number = $1
	`, accountNumber)
	found, err := HandleNotFound(&rec, err)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return found, nil
}

func (r *licenseRepo) FindAll(ctx context.Context) ([]model.LicenseRecord, error) {
	records := []model.LicenseRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM licenses
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return records, nil
}

func (r *licenseRepo) Create(ctx context.Context, p model.CreateLicenseParams) (*model.LicenseRecord, error) {
	var rec model.LicenseRecord
	err := r.db.GetContext(ctx, &rec, `
		INSERT INTO licenses (
			account_number, account_name, broker_name, server_name,
			account_currency, account_balance, account_leverage, account_type,
			ea_name, ea_version, mt5_build, subscription_type, status, expires_at,
			license_key, created_at, updated_at, last_seen, validation_count, client_ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16, $16, 1, $17)
		RETURNING *
	`, p.AccountNumber, p.AccountName, p.BrokerName, p.ServerName,
		p.AccountCurrency, p.AccountBalance, p.AccountLeverage, p.AccountType,
		p.EAName, p.EAVersion, p.MT5Build, p.SubscriptionType, p.Status, p.ExpiresAt,
		p.LicenseKey, p.Now, p.ClientIP)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.DuplicateKey("License").WithCause(err)
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return &rec, nil
}

func (r *licenseRepo) Update(ctx context.Context, accountNumber int64, p model.UpdateLicenseParams) (*model.LicenseRecord, error) {
	var rec model.LicenseRecord
	err := r.db.GetContext(ctx, &rec, `
		UPDATE licenses SET
			account_name = COALESCE($2, account_name),
			broker_name = COALESCE($3, broker_name),
			server_name = COALESCE($4, server_name),
			account_currency = COALESCE($5, account_currency),
			account_balance = COALESCE($6, account_balance),
			account_leverage = COALESCE($7, account_leverage),
			account_type = COALESCE($8, account_type),
			ea_name = COALESCE($9, ea_name),
			ea_version = COALESCE($10, ea_version),
			mt5_build = COALESCE($11, mt5_build),
			subscription_type = COALESCE($12, subscription_type),
			status = COALESCE($13, status),
			expires_at = COALESCE($14, expires_at),
			client_ip = COALESCE($15, client_ip),
			last_seen = COALESCE($16, last_seen),
			validation_count = validation_count + CASE WHEN $17::boolean THEN 1 ELSE 0 END,
			updated_at = $18
		WHERE account_number = $1
		RETURNING *
	`, accountNumber, p.AccountName, p.BrokerName, p.ServerName,
		p.AccountCurrency, p.AccountBalance, p.AccountLeverage, p.AccountType,
		p.EAName, p.EAVersion, p.MT5Build, p.SubscriptionType, p.Status,
		p.ExpiresAt, p.ClientIP, p.LastSeen, p.IncrementValidations, p.Now)
	found, err := HandleNotFound(&rec, err)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if found == nil {
		return nil, apperrors.NotFound("License")
	}
	return found, nil
}

func (r *licenseRepo) SetStatus(ctx context.Context, accountNumber int64, status model.LicenseStatus, now time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE licenses SET status = $2, updated_at = $3
		WHERE account_number = $1
	`, accountNumber, status, now)
	return checkAffected(result, err)
}

func (r *licenseRepo) Delete(ctx context.Context, accountNumber int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM licenses WHERE account_number = $1`, accountNumber)
	return checkAffected(result, err)
}

func (r *licenseRepo) Stats(ctx context.Context) (*model.LicenseStats, error) {
	var stats model.LicenseStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE subscription_type LIKE '%trial%') AS trial_users,
			COUNT(*) FILTER (WHERE subscription_type NOT LIKE '%trial%') AS paid_users,
			COUNT(*) FILTER (WHERE status IN ('active', 'trial')) AS active_users,
			COUNT(*) FILTER (WHERE status = 'paused') AS paused_users,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_approvals,
			COUNT(*) FILTER (WHERE status = 'suspended') AS suspended_users,
			COUNT(*) FILTER (WHERE status = 'expired') AS expired_users
		FROM licenses
	`)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return &stats, nil
}

func checkAffected(result sql.Result, err error) error {
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if n == 0 {
		return apperrors.NotFound("License")
	}
	return nil
}
