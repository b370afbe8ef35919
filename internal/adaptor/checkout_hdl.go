package adaptor

import (
	"net/http"

	"car-share/internal/dto/request"
	"car-share/internal/usecase"
	"car-share/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	service usecase.CheckoutService
	log     *zap.Logger
}

func NewCheckoutHandler(service usecase.CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		log:     log.With(zap.String("handler", "checkout")),
	}
}

// CreateCheckout handles POST /api/checkout
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CheckoutRequest
	if !decodeValid(w, r, &req) {
		return
	}

	checkout, err := h.service.CreateCheckout(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create checkout")
		return
	}

	utils.ResponseCreated(w, "Checkout started", checkout)
}

// GetUserReservations handles GET /api/user/reservations
func (h *CheckoutHandler) GetUserReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	page, perPage := paginationFromQuery(r)

	reservations, err := h.service.GetUserReservations(r.Context(), userID, page, perPage)
	if err != nil {
		handleServiceError(w, h.log, err, "get user reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}

// GetReservation handles GET /api/reservations/{id}
func (h *CheckoutHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reservationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid reservation ID", nil)
		return
	}

	reservation, err := h.service.GetReservation(r.Context(), userID, reservationID)
	if err != nil {
		handleServiceError(w, h.log, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}
