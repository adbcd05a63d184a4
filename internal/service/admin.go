package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/audit"
	apperrors "github.com/ealicense/license-server-go/internal/errors"
	"github.com/ealicense/license-server-go/internal/license"
	"github.com/ealicense/license-server-go/internal/metrics"
	"github.com/ealicense/license-server-go/internal/model"
	"github.com/ealicense/license-server-go/internal/repository"
)

const approvedTrialPlan = model.SubscriptionTrial30

var actionAuditEvents = map[model.AdminAction]audit.EventType{
	model.ActionApprove: audit.EventLicenseApprove,
	model.ActionUpgrade: audit.EventLicenseUpgrade,
	model.ActionExtend:  audit.EventLicenseExtend,
	model.ActionPause:   audit.EventLicensePause,
	model.ActionResume:  audit.EventLicenseResume,
	model.ActionSuspend: audit.EventLicenseSuspend,
	model.ActionDelete:  audit.EventLicenseDelete,
}

var actionMessages = map[model.AdminAction]string{
	model.ActionApprove: "User approved successfully",
	model.ActionUpgrade: "User upgraded successfully",
	model.ActionExtend:  "License extended successfully",
	model.ActionPause:   "User paused successfully",
	model.ActionResume:  "User resumed successfully",
	model.ActionSuspend: "User suspended successfully",
	model.ActionDelete:  "User deleted successfully",
}

var statusActionTargets = map[model.AdminAction]model.LicenseStatus{
	model.ActionPause:   model.StatusPaused,
	model.ActionResume:  model.StatusActive,
	model.ActionSuspend: model.StatusSuspended,
}

// ActionResult describes an applied admin action. Record is nil after delete.
type ActionResult struct {
	Action        model.AdminAction
	AccountNumber int64
	Message       string
	Record        *model.LicenseRecord
}

type AdminService struct {
	repo    repository.LicenseRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAdminService(repo repository.LicenseRepository, m *metrics.Metrics) *AdminService {
	return &AdminService{
		repo:    repo,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard is every record plus counts taken from that same list.
type Dashboard struct {
	Users []model.LicenseRecord `json:"users"`
	Stats *model.LicenseStats   `json:"stats"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Users: users, Stats: license.Summarize(users)}, nil
}

// Apply validates and executes one operator command. Nothing is written
// unless the command is well-formed and its precondition holds.
func (s *AdminService) Apply(ctx context.Context, cmd model.AdminCommand) (*ActionResult, error) {
	result, err := s.apply(ctx, cmd)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if _, known := actionMessages[cmd.Action]; known {
		s.metrics.AdminAction(cmd.Action, outcome)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("action", string(cmd.Action)).
		Int64("accountNumber", cmd.AccountNumber).
		Msg("admin action applied")

	details := map[string]interface{}{}
	if result.Record != nil {
		details["status"] = string(result.Record.Status)
		details["subscription_type"] = string(result.Record.SubscriptionType)
		details["expires_at"] = result.Record.ExpiresAt
	}
	audit.Log(ctx, audit.Event{
		Type:          actionAuditEvents[cmd.Action],
		AccountNumber: cmd.AccountNumber,
		Details:       details,
	})

	return result, nil
}

func (s *AdminService) apply(ctx context.Context, cmd model.AdminCommand) (*ActionResult, error) {
	message, known := actionMessages[cmd.Action]
	if !known {
		return nil, apperrors.InvalidAction(string(cmd.Action))
	}
	if cmd.AccountNumber <= 0 {
		return nil, apperrors.InvalidInput("account_number", "must be a positive integer")
	}
	if err := validateActionParams(cmd); err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByAccount(ctx, cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NotFound("License")
	}

	result := &ActionResult{
		Action:        cmd.Action,
		AccountNumber: cmd.AccountNumber,
		Message:       message,
	}

	if cmd.Action == model.ActionDelete {
		if err := s.repo.Delete(ctx, cmd.AccountNumber); err != nil {
			return nil, err
		}
		return result, nil
	}

	params, err := s.actionUpdate(rec, cmd)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, cmd.AccountNumber, params)
	if err != nil {
		return nil, err
	}
	result.Record = updated
	return result, nil
}

func validateActionParams(cmd model.AdminCommand) error {
	switch cmd.Action {
	case model.ActionUpgrade:
		if cmd.SubscriptionType == "" {
			return apperrors.MissingRequired("subscription_type")
		}
		if !cmd.SubscriptionType.Valid() {
			return apperrors.InvalidInput("subscription_type", "unknown plan")
		}
	case model.ActionExtend:
		if cmd.Days < 0 || cmd.Months < 0 {
			return apperrors.InvalidInput("days/months", "must not be negative")
		}
		if cmd.Days == 0 && cmd.Months == 0 {
			return apperrors.MissingRequired("days or months")
		}
		if cmd.Days > license.MaxExtendDays {
			return apperrors.InvalidInput("days", fmt.Sprintf("must be at most %d", license.MaxExtendDays))
		}
		if cmd.Months > license.MaxExtendMonths {
			return apperrors.InvalidInput("months", fmt.Sprintf("must be at most %d", license.MaxExtendMonths))
		}
	}
	return nil
}

func (s *AdminService) actionUpdate(rec *model.LicenseRecord, cmd model.AdminCommand) (model.UpdateLicenseParams, error) {
	now := s.now()
	params := model.UpdateLicenseParams{Now: now}

	switch cmd.Action {
	case model.ActionApprove:
		if rec.Status != model.StatusPending {
			return params, apperrors.InvalidTransition(string(rec.Status), string(cmd.Action))
		}
		expiresAt, err := license.PlanExpiry(approvedTrialPlan, now)
		if err != nil {
			return params, apperrors.Internal("Failed to compute expiry").WithCause(err)
		}
		params.Status = statusPtr(model.StatusTrial)
		params.ExpiresAt = &expiresAt
	case model.ActionUpgrade:
		expiresAt, err := license.PlanExpiry(cmd.SubscriptionType, now)
		if err != nil {
			return params, apperrors.InvalidInput("subscription_type", err.Error())
		}
		plan := cmd.SubscriptionType
		params.SubscriptionType = &plan
		params.Status = statusPtr(license.PlanStatus(plan))
		params.ExpiresAt = &expiresAt
	case model.ActionExtend:
		expiresAt := license.Extend(rec.ExpiresAt, cmd.Days, cmd.Months)
		params.ExpiresAt = &expiresAt
	case model.ActionPause, model.ActionResume, model.ActionSuspend:
		// pending leaves only through approve, upgrade or delete
		if rec.Status == model.StatusPending {
			return params, apperrors.InvalidTransition(string(rec.Status), string(cmd.Action))
		}
		params.Status = statusPtr(statusActionTargets[cmd.Action])
	case model.ActionDelete:
		return params, apperrors.Internal("delete has no update form")
	default:
		return params, apperrors.InvalidAction(string(cmd.Action))
	}
	return params, nil
}

func statusPtr(s model.LicenseStatus) *model.LicenseStatus {
	return &s
}
