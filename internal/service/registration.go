package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/audit"
	"github.com/ealicense/license-server-go/internal/config"
	apperrors "github.com/ealicense/license-server-go/internal/errors"
	"github.com/ealicense/license-server-go/internal/license"
	"github.com/ealicense/license-server-go/internal/metrics"
	"github.com/ealicense/license-server-go/internal/model"
	"github.com/ealicense/license-server-go/internal/repository"
	"github.com/ealicense/license-server-go/internal/util"
)

// CheckinResult is a reconciled record together with its verdict.
type CheckinResult struct {
	Record  *model.LicenseRecord
	Verdict model.Verdict
	// Created is true when this check-in inserted the record.
	Created bool
	// LicenseKey is only populated on creation.
	LicenseKey string
}

func (r *CheckinResult) Response() model.CheckinResponse {
	resp := model.CheckinResponse{
		Valid:            r.Verdict.Valid,
		Status:           r.Verdict.Status,
		SubscriptionType: r.Verdict.SubscriptionType,
		DaysRemaining:    r.Verdict.DaysRemaining,
		AccountType:      r.Record.AccountType,
		AccountName:      r.Record.AccountName,
		EAName:           r.Record.EAName,
		LicenseKey:       r.LicenseKey,
	}
	if !r.Verdict.ExpiresAt.IsZero() {
		expiresAt := r.Verdict.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	if r.Created {
		resp.Message = license.TrialActivatedMessage(r.Verdict, r.Record.EAName)
	} else {
		resp.Message = license.Message(r.Verdict, r.Record.AccountName, r.Record.EAName)
	}
	return resp
}

type RegistrationService struct {
	repo    repository.LicenseRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRegistrationService(repo repository.LicenseRepository, m *metrics.Metrics) *RegistrationService {
	return &RegistrationService{
		repo:    repo,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile applies one check-in to the stored record and returns the verdict.
// It is idempotent per account apart from validation_count and last_seen.
func (s *RegistrationService) Reconcile(ctx context.Context, t model.Telemetry) (*CheckinResult, error) {
	result, err := s.reconcile(ctx, t)
	switch {
	case err != nil:
		s.metrics.Checkin(metrics.ResultError)
	case result.Created:
		s.metrics.Checkin(metrics.ResultNewTrial)
	case result.Verdict.Valid:
		s.metrics.Checkin(metrics.ResultValid)
	default:
		s.metrics.Checkin(metrics.ResultInvalid)
	}
	return result, err
}

func (s *RegistrationService) reconcile(ctx context.Context, t model.Telemetry) (*CheckinResult, error) {
	plan, err := validateTelemetry(&t)
	if err != nil {
		return nil, err
	}

	now := s.now()
	existing, err := s.repo.FindByAccount(ctx, t.AccountNumber)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		result, err := s.create(ctx, t, plan, now)
		if err == nil {
			return result, nil
		}
		if !apperrors.IsCode(err, apperrors.ErrCodeDuplicateKey) {
			return nil, err
		}

		// Lost the insert race to a concurrent first check-in.
		s.metrics.DuplicateRace()
		log.Info().
			Int64("accountNumber", t.AccountNumber).
			Msg("duplicate first check-in, retrying as update")

		existing, err = s.repo.FindByAccount(ctx, t.AccountNumber)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperrors.Internal("License record missing after duplicate insert")
		}
	}

	return s.refresh(ctx, existing, t, now)
}

func validateTelemetry(t *model.Telemetry) (model.SubscriptionType, error) {
	if t.AccountNumber <= 0 {
		return "", apperrors.InvalidInput("account_number", "must be a positive integer")
	}
	t.BrokerName = strings.TrimSpace(t.BrokerName)
	if t.BrokerName == "" {
		return "", apperrors.MissingRequired("broker_name")
	}

	plan := t.TrialType
	if plan == "" {
		plan = model.SubscriptionTrial30
	}
	if plan != model.SubscriptionTrial7 && plan != model.SubscriptionTrial30 {
		return "", apperrors.ValidationError("trial_type must be trial_7 or trial_30")
	}
	return plan, nil
}

func (s *RegistrationService) create(ctx context.Context, t model.Telemetry, plan model.SubscriptionType, now time.Time) (*CheckinResult, error) {
	expiresAt, err := license.PlanExpiry(plan, now)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute trial expiry").WithCause(err)
	}

	eaName := valueOr(t.EAName, config.DefaultEAName)
	key, err := util.GenerateLicenseKey(eaName, t.AccountNumber)
	if err != nil {
		return nil, apperrors.Internal("Failed to mint license key").WithCause(err)
	}

	serverName := valueOr(t.ServerName, "")
	rec, err := s.repo.Create(ctx, model.CreateLicenseParams{
		AccountNumber:    t.AccountNumber,
		AccountName:      valueOr(t.AccountName, ""),
		BrokerName:       t.BrokerName,
		ServerName:       serverName,
		AccountCurrency:  valueOr(t.AccountCurrency, ""),
		AccountBalance:   valueOr(t.AccountBalance, 0),
		AccountLeverage:  valueOr(t.AccountLeverage, 0),
		AccountType:      license.Classify(t.AccountNumber, serverName, t.BrokerName),
		EAName:           eaName,
		EAVersion:        valueOr(t.EAVersion, config.DefaultEAVersion),
		MT5Build:         t.MT5Build,
		SubscriptionType: plan,
		Status:           license.PlanStatus(plan),
		ExpiresAt:        expiresAt,
		LicenseKey:       &key,
		ClientIP:         t.ClientIP,
		Now:              now,
	})
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:          audit.EventLicenseCreate,
		AccountNumber: rec.AccountNumber,
		IP:            t.ClientIP,
		Details: map[string]interface{}{
			"subscription_type": string(rec.SubscriptionType),
			"account_type":      string(rec.AccountType),
			"license_key":       util.MaskLicenseKey(key),
		},
	})

	return &CheckinResult{
		Record:     rec,
		Verdict:    license.Evaluate(rec, now),
		Created:    true,
		LicenseKey: key,
	}, nil
}

// refresh merges telemetry into an existing record, evaluates the merged
// record and persists both in a single update.
func (s *RegistrationService) refresh(ctx context.Context, existing *model.LicenseRecord, t model.Telemetry, now time.Time) (*CheckinResult, error) {
	params := model.UpdateLicenseParams{
		AccountName:          t.AccountName,
		BrokerName:           &t.BrokerName,
		ServerName:           t.ServerName,
		AccountCurrency:      t.AccountCurrency,
		AccountBalance:       t.AccountBalance,
		AccountLeverage:      t.AccountLeverage,
		EAName:               t.EAName,
		EAVersion:            t.EAVersion,
		MT5Build:             t.MT5Build,
		LastSeen:             &now,
		IncrementValidations: true,
		Now:                  now,
	}
	if t.ClientIP != "" {
		params.ClientIP = &t.ClientIP
	}

	merged := *existing
	merged.BrokerName = t.BrokerName
	if t.ServerName != nil {
		merged.ServerName = *t.ServerName
	}
	if accountType := license.Classify(merged.AccountNumber, merged.ServerName, merged.BrokerName); accountType != model.AccountTypeUnknown {
		params.AccountType = &accountType
	}

	verdict := license.Evaluate(&merged, now)
	if verdict.Expire {
		expired := model.StatusExpired
		params.Status = &expired
	}

	rec, err := s.repo.Update(ctx, existing.AccountNumber, params)
	if err != nil {
		return nil, err
	}

	if verdict.Expire {
		s.recordExpiry(ctx, rec.AccountNumber, existing.Status)
	}

	log.Debug().
		Int64("accountNumber", rec.AccountNumber).
		Str("status", string(verdict.Status)).
		Bool("valid", verdict.Valid).
		Int("daysRemaining", verdict.DaysRemaining).
		Msg("license check-in")

	return &CheckinResult{Record: rec, Verdict: verdict}, nil
}

// Status evaluates the stored record without applying telemetry. A passed
// expiry is still persisted.
func (s *RegistrationService) Status(ctx context.Context, accountNumber int64) (*CheckinResult, error) {
	if accountNumber <= 0 {
		return nil, apperrors.InvalidInput("account_number", "must be a positive integer")
	}

	rec, err := s.repo.FindByAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NotFound("License")
	}

	now := s.now()
	verdict := license.Evaluate(rec, now)
	if verdict.Expire {
		if err := s.repo.SetStatus(ctx, accountNumber, model.StatusExpired, now); err != nil {
			return nil, err
		}
		s.recordExpiry(ctx, accountNumber, rec.Status)
		rec.Status = model.StatusExpired
		rec.UpdatedAt = now
	}

	return &CheckinResult{Record: rec, Verdict: verdict}, nil
}

func (s *RegistrationService) recordExpiry(ctx context.Context, accountNumber int64, from model.LicenseStatus) {
	s.metrics.LazyExpiry()
	audit.Log(ctx, audit.Event{
		Type:          audit.EventLicenseExpire,
		AccountNumber: accountNumber,
		Details: map[string]interface{}{
			"previous_status": string(from),
		},
	})
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
