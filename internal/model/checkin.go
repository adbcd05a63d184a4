package model

import "time"

// Telemetry is one validated check-in from an EA.
type Telemetry struct {
	AccountNumber   int64
	BrokerName      string
	AccountName     *string
	ServerName      *string
	AccountBalance  *float64
	AccountCurrency *string
	AccountLeverage *int
	EAName          *string
	EAVersion       *string
	MT5Build        *int
	TrialType       SubscriptionType
	ClientIP        string
}

// Verdict is the outcome of evaluating a license at a point in time.
type Verdict struct {
	Valid            bool
	Status           LicenseStatus
	SubscriptionType SubscriptionType
	ExpiresAt        time.Time
	DaysRemaining    int
	Reason           string
	// Expire is set when the stored status must be flipped to expired.
	Expire bool
}

// CheckinResponse is the wire shape returned to the EA.
type CheckinResponse struct {
	Valid            bool             `json:"valid"`
	Status           LicenseStatus    `json:"status"`
	SubscriptionType SubscriptionType `json:"subscription_type"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	DaysRemaining    int              `json:"days_remaining"`
	Message          string           `json:"message"`
	AccountType      AccountType      `json:"account_type"`
	AccountName      string           `json:"account_name"`
	EAName           string           `json:"ea_name"`
	LicenseKey       string           `json:"license_key,omitempty"`
}

// AdminCommand is a validated operator request.
type AdminCommand struct {
	Action           AdminAction
	AccountNumber    int64
	SubscriptionType SubscriptionType
	Days             int
	Months           int
}
