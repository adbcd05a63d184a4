package model

import (
	"time"
)

// LicenseRecord is the single persisted license row for one trading account.
type LicenseRecord struct {
	AccountNumber    int64            `db:"account_number" json:"account_number"`
	AccountName      string           `db:"account_name" json:"account_name"`
	BrokerName       string           `db:"broker_name" json:"broker_name"`
	ServerName       string           `db:"server_name" json:"server_name"`
	AccountCurrency  string           `db:"account_currency" json:"account_currency"`
	AccountBalance   float64          `db:"account_balance" json:"account_balance"`
	AccountLeverage  int              `db:"account_leverage" json:"account_leverage"`
	AccountType      AccountType      `db:"account_type" json:"account_type"`
	EAName           string           `db:"ea_name" json:"ea_name"`
	EAVersion        string           `db:"ea_version" json:"ea_version"`
	MT5Build         *int             `db:"mt5_build" json:"mt5_build,omitempty"`
	SubscriptionType SubscriptionType `db:"subscription_type" json:"subscription_type"`
	Status           LicenseStatus    `db:"status" json:"status"`
	ExpiresAt        time.Time        `db:"expires_at" json:"expires_at"`
	LicenseKey       *string          `db:"license_key" json:"license_key,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
	LastSeen         time.Time        `db:"last_seen" json:"last_seen"`
	ValidationCount  int64            `db:"validation_count" json:"validation_count"`
	ClientIP         string           `db:"client_ip" json:"client_ip"`
}

type CreateLicenseParams struct {
	AccountNumber    int64
	AccountName      string
	BrokerName       string
	ServerName       string
	AccountCurrency  string
	AccountBalance   float64
	AccountLeverage  int
	AccountType      AccountType
	EAName           string
	EAVersion        string
	MT5Build         *int
	SubscriptionType SubscriptionType
	Status           LicenseStatus
	ExpiresAt        time.Time
	LicenseKey       *string
	ClientIP         string
	Now              time.Time
}

// UpdateLicenseParams is a partial update: nil fields keep their stored value.
// updated_at is always refreshed.
type UpdateLicenseParams struct {
	AccountName      *string
	BrokerName       *string
	ServerName       *string
	AccountCurrency  *string
	AccountBalance   *float64
	AccountLeverage  *int
	AccountType      *AccountType
	EAName           *string
	EAVersion        *string
	MT5Build         *int
	SubscriptionType *SubscriptionType
	Status           *LicenseStatus
	ExpiresAt        *time.Time
	ClientIP         *string
	LastSeen         *time.Time
	// IncrementValidations bumps validation_count by one inside the same statement.
	IncrementValidations bool
	Now                  time.Time
}

// LicenseStats holds the dashboard aggregate counts.
type LicenseStats struct {
	TotalUsers       int `db:"total_users" json:"total_users"`
	TrialUsers       int `db:"trial_users" json:"trial_users"`
	PaidUsers        int `db:"paid_users" json:"paid_users"`
	ActiveUsers      int `db:"active_users" json:"active_users"`
	PausedUsers      int `db:"paused_users" json:"paused_users"`
	PendingApprovals int `db:"pending_approvals" json:"pending_approvals"`
	SuspendedUsers   int `db:"suspended_users" json:"suspended_users"`
	ExpiredUsers     int `db:"expired_users" json:"expired_users"`
}
