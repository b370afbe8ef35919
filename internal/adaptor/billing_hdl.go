package adaptor

import (
	"net/http"

	"car-share/internal/dto/response"
	"car-share/internal/usecase"
	"car-share/pkg/utils"

	"go.uber.org/zap"
)

type BillingHandler struct {
	service usecase.BillingService
	log     *zap.Logger
}

func NewBillingHandler(service usecase.BillingService, log *zap.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		log:     log.With(zap.String("handler", "billing")),
	}
}

// GetStatus handles GET /api/billing
func (h *BillingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	status, err := h.service.GetBillingStatus(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get billing status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// CreateAccountLink handles POST /api/billing/account-link
func (h *BillingHandler) CreateAccountLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	url, err := h.service.CreateAccountLink(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "create account link")
		return
	}

	utils.ResponseSuccess(w, "success", response.RedirectResponse{URL: url})
}

// CreateDashboardLink handles POST /api/billing/dashboard-link
func (h *BillingHandler) CreateDashboardLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	url, err := h.service.GetDashboardLink(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "create dashboard link")
		return
	}

	utils.ResponseSuccess(w, "success", response.RedirectResponse{URL: url})
}
