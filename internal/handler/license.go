package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/audit"
	apperrors "github.com/ealicense/license-server-go/internal/errors"
	"github.com/ealicense/license-server-go/internal/httputil"
	"github.com/ealicense/license-server-go/internal/model"
	"github.com/ealicense/license-server-go/internal/service"
)

const checkinFailureMessage = "License validation failed - Please try again later"

// LicenseService is the check-in surface of service.RegistrationService.
type LicenseService interface {
	Reconcile(ctx context.Context, t model.Telemetry) (*service.CheckinResult, error)
	Status(ctx context.Context, accountNumber int64) (*service.CheckinResult, error)
}

type LicenseHandler struct {
	licenseService LicenseService
	checkinLimit   func(http.Handler) http.Handler
}

func NewLicenseHandler(licenseService LicenseService, checkinLimit func(http.Handler) http.Handler) *LicenseHandler {
	if checkinLimit == nil {
		checkinLimit = passThrough
	}
	return &LicenseHandler{
		licenseService: licenseService,
		checkinLimit:   checkinLimit,
	}
}

func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)

	r.Options("/auto-register", preflight)
	r.With(h.checkinLimit).Post("/auto-register", h.Checkin)

	r.Options("/license/{accountNumber}", preflight)
	r.Get("/license/{accountNumber}", h.Status)

	return r
}

type checkinRequest struct {
	AccountNumber   *int64   `json:"account_number" validate:"required,gt=0"`
	BrokerName      string   `json:"broker_name" validate:"required,max=255"`
	AccountName     *string  `json:"account_name" validate:"omitempty,max=255"`
	ServerName      *string  `json:"server_name" validate:"omitempty,max=255"`
	AccountBalance  *float64 `json:"account_balance"`
	AccountCurrency *string  `json:"account_currency" validate:"omitempty,max=16"`
	AccountLeverage *int     `json:"account_leverage" validate:"omitempty,gte=0"`
	EAName          *string  `json:"ea_name" validate:"omitempty,max=128"`
	EAVersion       *string  `json:"ea_version" validate:"omitempty,max=64"`
	MT5Build        *int     `json:"mt5_build" validate:"omitempty,gte=0"`
	TrialType       string   `json:"trial_type" validate:"omitempty,oneof=trial_7 trial_30"`
}

func (req *checkinRequest) telemetry(clientIP string) model.Telemetry {
	return model.Telemetry{
		AccountNumber:   *req.AccountNumber,
		BrokerName:      req.BrokerName,
		AccountName:     req.AccountName,
		ServerName:      req.ServerName,
		AccountBalance:  req.AccountBalance,
		AccountCurrency: req.AccountCurrency,
		AccountLeverage: req.AccountLeverage,
		EAName:          req.EAName,
		EAVersion:       req.EAVersion,
		MT5Build:        req.MT5Build,
		TrialType:       model.SubscriptionType(req.TrialType),
		ClientIP:        clientIP,
	}
}

// Checkin handles POST /api/auto-register.
func (h *LicenseHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeRequest(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.licenseService.Reconcile(r.Context(), req.telemetry(audit.ClientIP(r)))
	if err != nil {
		h.writeCheckinError(w, err, *req.AccountNumber)
		return
	}

	writeJSON(w, http.StatusOK, result.Response())
}

// Status handles GET /api/license/{accountNumber}.
func (h *LicenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	accountNumber, err := strconv.ParseInt(chi.URLParam(r, "accountNumber"), 10, 64)
	if err != nil || accountNumber <= 0 {
		httputil.WriteError(w, apperrors.InvalidInput("account_number", "must be a positive integer"))
		return
	}

	result, err := h.licenseService.Status(r.Context(), accountNumber)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			writeJSON(w, http.StatusNotFound, httputil.ErrorResponse{Message: "License not found"})
			return
		}
		h.writeCheckinError(w, err, accountNumber)
		return
	}

	writeJSON(w, http.StatusOK, result.Response())
}

func (h *LicenseHandler) writeCheckinError(w http.ResponseWriter, err error, accountNumber int64) {
	if apperrors.IsClientError(err) {
		httputil.WriteError(w, err)
		return
	}

	log.Error().Err(err).Int64("accountNumber", accountNumber).Msg("license check failed")
	writeJSON(w, http.StatusInternalServerError, checkinFailure{
		Valid:   false,
		Status:  "error",
		Message: checkinFailureMessage,
	})
}
