package license

import (
	"fmt"
	"math"
	"time"

	"github.com/ealicense/license-server-go/internal/model"
)

const day = 24 * time.Hour

// Verdict reasons.
const (
	ReasonPending   = "pending approval"
	ReasonPaused    = "paused"
	ReasonSuspended = "suspended"
	ReasonExpired   = "expired"
	ReasonValid     = "valid"
	ReasonUnknown   = "unknown status"
)

// DaysUntil returns ceil((expiresAt - now) / 1 day). Negative once overdue.
func DaysUntil(expiresAt, now time.Time) int {
	return int(math.Ceil(float64(expiresAt.Sub(now)) / float64(day)))
}

// Evaluate decides whether record is usable at now. It never writes; when the
// record must be flipped to expired the returned verdict has Expire set and
// the caller persists it.
func Evaluate(record *model.LicenseRecord, now time.Time) model.Verdict {
	raw := DaysUntil(record.ExpiresAt, now)
	reported := max(raw, 0)

	v := model.Verdict{
		Status:           record.Status,
		SubscriptionType: record.SubscriptionType,
		ExpiresAt:        record.ExpiresAt,
	}

	switch record.Status {
	case model.StatusPending:
		v.Reason = ReasonPending
		return v
	case model.StatusPaused:
		v.Reason = ReasonPaused
		v.DaysRemaining = reported
		return v
	case model.StatusSuspended:
		v.Reason = ReasonSuspended
		return v
	case model.StatusTrial, model.StatusActive, model.StatusExpired:
	default:
		v.Reason = ReasonUnknown
		return v
	}

	if raw <= 0 && record.SubscriptionType != model.SubscriptionLifetime {
		v.Status = model.StatusExpired
		v.Reason = ReasonExpired
		v.DaysRemaining = raw
		v.Expire = record.Status != model.StatusExpired
		return v
	}

	v.Valid = true
	v.Reason = ReasonValid
	v.DaysRemaining = reported
	return v
}

// PlanExpiry returns the expiry for a plan started at from.
func PlanExpiry(plan model.SubscriptionType, from time.Time) (time.Time, error) {
	switch plan {
	case model.SubscriptionTrial7:
		return from.AddDate(0, 0, 7), nil
	case model.SubscriptionTrial30:
		return from.AddDate(0, 0, 30), nil
	case model.SubscriptionMonthly:
		return from.AddDate(0, 1, 0), nil
	case model.SubscriptionYearly:
		return from.AddDate(1, 0, 0), nil
	case model.SubscriptionLifetime:
		// far-future sentinel; lifetime plans are never expired by Evaluate
		return from.AddDate(100, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown subscription type %q", plan)
	}
}

// PlanStatus is the status a record takes when moved onto plan.
func PlanStatus(plan model.SubscriptionType) model.LicenseStatus {
	if plan.IsTrial() {
		return model.StatusTrial
	}
	return model.StatusActive
}

// TrialDays is the length of a trial plan in days.
func TrialDays(plan model.SubscriptionType) int {
	switch plan {
	case model.SubscriptionTrial7:
		return 7
	default:
		return 30
	}
}

// Upper bounds for a single extend. Larger values overflow time.AddDate.
const (
	MaxExtendDays   = 36500
	MaxExtendMonths = 1200
)

// Extend pushes expiresAt forward by days, then by calendar months.
func Extend(expiresAt time.Time, days, months int) time.Time {
	return expiresAt.AddDate(0, 0, days).AddDate(0, months, 0)
}

// Message renders the client-facing text for a verdict.
func Message(v model.Verdict, accountName, eaName string) string {
	switch v.Reason {
	case ReasonPending:
		return "Your account is pending approval. Please contact the administrator for activation."
	case ReasonPaused:
		return "Your EA has been paused by the administrator. Contact support."
	case ReasonSuspended:
		return "License suspended - contact support"
	case ReasonExpired:
		return fmt.Sprintf("License expired %d days ago - contact support to renew", abs(v.DaysRemaining))
	case ReasonValid:
		return fmt.Sprintf("Welcome back %s! %s license active for %s", accountName, v.SubscriptionType, eaName)
	default:
		return "License status unknown - contact support"
	}
}

// TrialActivatedMessage is returned on the first check-in of an account.
func TrialActivatedMessage(v model.Verdict, eaName string) string {
	return fmt.Sprintf("New %s trial activated for %s: %d days remaining", v.SubscriptionType, eaName, v.DaysRemaining)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
