package adaptor

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"car-share/internal/dto/request"
	"car-share/internal/usecase"
	"car-share/pkg/payment"
	"car-share/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Billing  *BillingHandler
	Listing  *ListingHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		Profile:  NewProfileHandler(service.Profile, log),
		Billing:  NewBillingHandler(service.Billing, log),
		Listing:  NewListingHandler(service.Listing, log),
		Checkout: NewCheckoutHandler(service.Checkout, log),
		Webhook:  NewWebhookHandler(service.Webhook, log),
	}
}

// handleServiceError maps usecase errors to responses. Unknown errors are logged and
// answered with a generic 500 so no internal detail leaks.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	switch {
	case usecase.IsValidation(err),
		errors.Is(err, payment.ErrSignature),
		errors.Is(err, payment.ErrMalformedEvent):
		log.Warn(operation+" rejected", fields...)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrListingNotFound),
		errors.Is(err, usecase.ErrProfileNotFound),
		errors.Is(err, usecase.ErrReservationNotFound),
		errors.Is(err, usecase.ErrUserNotFound):
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrHostNotPayable),
		errors.Is(err, usecase.ErrMissingConnectedAccount),
		errors.Is(err, usecase.ErrNotLinked),
		errors.Is(err, usecase.ErrEmailTaken),
		errors.Is(err, usecase.ErrAlreadyVerified):
		log.Warn(operation+" failed - conflict", fields...)
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrUnauthorized),
		errors.Is(err, usecase.ErrInvalidCredentials):
		log.Warn(operation+" failed - unauthorized", fields...)
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", fields...)
		utils.ResponseForbidden(w, err.Error())

	default:
		log.Error("Failed to "+operation, fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeJSON reads the body into dst. It answers 400 itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// decodeValid is decodeJSON followed by struct validation.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if fieldErrors := utils.ValidateStruct(dst); len(fieldErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", fieldErrors)
		return false
	}
	return true
}

// clientInfo expects RemoteAddr to be rewritten by chi's RealIP when behind a proxy.
func clientInfo(r *http.Request) request.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return request.ClientInfo{UserAgent: r.UserAgent(), IPAddress: ip}
}

// paginationFromQuery reads page and per_page, falling back to 1 and 10.
func paginationFromQuery(r *http.Request) (page, perPage int) {
	query := r.URL.Query()
	page = utils.ParseInt(query.Get("page"), 1)
	perPage = utils.ParseInt(query.Get("per_page"), 10)
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func listingIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
