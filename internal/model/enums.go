package model

import "strings"

type AccountType string

const (
	AccountTypeReal    AccountType = "real"
	AccountTypeDemo    AccountType = "demo"
	AccountTypeUnknown AccountType = "unknown"
)

type SubscriptionType string

const (
	SubscriptionTrial7   SubscriptionType = "trial_7"
	SubscriptionTrial30  SubscriptionType = "trial_30"
	SubscriptionMonthly  SubscriptionType = "monthly"
	SubscriptionYearly   SubscriptionType = "yearly"
	SubscriptionLifetime SubscriptionType = "lifetime"
)

var subscriptionTypes = []SubscriptionType{
	SubscriptionTrial7,
	SubscriptionTrial30,
	SubscriptionMonthly,
	SubscriptionYearly,
	SubscriptionLifetime,
}

func (s SubscriptionType) Valid() bool {
	for _, v := range subscriptionTypes {
		if s == v {
			return true
		}
	}
	return false
}

// IsTrial reports whether the plan is one of the trial plans.
func (s SubscriptionType) IsTrial() bool {
	return strings.Contains(string(s), "trial")
}

func ParseSubscriptionType(s string) (SubscriptionType, bool) {
	st := SubscriptionType(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

type LicenseStatus string

const (
	StatusPending   LicenseStatus = "pending"
	StatusTrial     LicenseStatus = "trial"
	StatusActive    LicenseStatus = "active"
	StatusPaused    LicenseStatus = "paused"
	StatusSuspended LicenseStatus = "suspended"
	StatusExpired   LicenseStatus = "expired"
)

var licenseStatuses = []LicenseStatus{
	StatusPending,
	StatusTrial,
	StatusActive,
	StatusPaused,
	StatusSuspended,
	StatusExpired,
}

func (s LicenseStatus) Valid() bool {
	for _, v := range licenseStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type AdminAction string

const (
	ActionApprove AdminAction = "approve"
	ActionUpgrade AdminAction = "upgrade"
	ActionExtend  AdminAction = "extend"
	ActionPause   AdminAction = "pause"
	ActionResume  AdminAction = "resume"
	ActionSuspend AdminAction = "suspend"
	ActionDelete  AdminAction = "delete"
)
