package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/ealicense/license-server-go/internal/errors"
	"github.com/ealicense/license-server-go/internal/httputil"
	"github.com/ealicense/license-server-go/internal/model"
	"github.com/ealicense/license-server-go/internal/service"
)

// AdminService is the operator surface of service.AdminService.
type AdminService interface {
	Apply(ctx context.Context, cmd model.AdminCommand) (*service.ActionResult, error)
	Dashboard(ctx context.Context) (*service.Dashboard, error)
}

type AdminHandler struct {
	adminService   AdminService
	authMiddleware func(http.Handler) http.Handler
}

func NewAdminHandler(adminService AdminService, authMiddleware func(http.Handler) http.Handler) *AdminHandler {
	if authMiddleware == nil {
		authMiddleware = passThrough
	}
	return &AdminHandler{
		adminService:   adminService,
		authMiddleware: authMiddleware,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)

	r.Options("/dashboard", preflight)
	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/dashboard", h.Action)
	})

	return r
}

type dashboardResponse struct {
	Success bool                  `json:"success"`
	Users   []model.LicenseRecord `json:"users"`
	Stats   *model.LicenseStats   `json:"stats"`
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load dashboard")
		writeJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{
			Message: "Failed to fetch dashboard data",
			Code:    apperrors.GetCode(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Success: true,
		Users:   d.Users,
		Stats:   d.Stats,
	})
}

type adminActionRequest struct {
	Action           string `json:"action" validate:"required"`
	AccountNumber    *int64 `json:"account_number" validate:"required,gt=0"`
	SubscriptionType string `json:"subscription_type"`
	Days             int    `json:"days" validate:"gte=0,lte=36500"`
	Months           int    `json:"months" validate:"gte=0,lte=1200"`
}

// Action handles POST /api/admin/dashboard.
func (h *AdminHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req adminActionRequest
	if err := decodeRequest(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	plan, _ := model.ParseSubscriptionType(req.SubscriptionType)
	result, err := h.adminService.Apply(r.Context(), model.AdminCommand{
		Action:           model.AdminAction(req.Action),
		AccountNumber:    *req.AccountNumber,
		SubscriptionType: plan,
		Days:             req.Days,
		Months:           req.Months,
	})
	if err != nil {
		if !apperrors.IsClientError(err) {
			log.Error().
				Err(err).
				Str("action", req.Action).
				Int64("accountNumber", *req.AccountNumber).
				Msg("admin action failed")
		}
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: result.Message})
}
