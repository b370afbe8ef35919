package adaptor

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"car-share/internal/dto/request"
	"car-share/internal/usecase"
	"car-share/pkg/utils"

	"go.uber.org/zap"
)

type ListingHandler struct {
	service usecase.ListingService
	log     *zap.Logger
}

func NewListingHandler(service usecase.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log.With(zap.String("handler", "listing")),
	}
}

// CreateListing handles POST /api/cars (linked hosts only)
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// validated by the service, which also discards the uploaded photos on failure
	listing, err := h.service.CreateListing(r.Context(), ownerID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create listing")
		return
	}

	utils.ResponseCreated(w, "Listing created successfully", listing)
}

// SearchListings handles GET /api/cars
func (h *ListingHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	req, err := parseListingSearch(r)
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	listings, err := h.service.SearchListings(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "search listings")
		return
	}

	utils.ResponseSuccess(w, "success", listings)
}

// parseListingSearch rejects malformed numbers instead of silently dropping the filter.
func parseListingSearch(r *http.Request) (*request.ListingSearchRequest, error) {
	query := r.URL.Query()
	page, perPage := paginationFromQuery(r)

	req := &request.ListingSearchRequest{
		PaginatedRequest: request.PaginatedRequest{Page: page, PerPage: perPage},
		Make:             stringParam(query, "make"),
		Model:            stringParam(query, "model"),
		Transmission:     stringParam(query, "transmission"),
		FuelType:         stringParam(query, "fuel_type"),
		VehicleType:      stringParam(query, "vehicle_type"),
		From:             stringParam(query, "from"),
		To:               stringParam(query, "to"),
	}

	var err error
	if req.Year, err = intParam(query, "year"); err != nil {
		return nil, err
	}
	if req.SeatingCapacity, err = intParam(query, "seating_capacity"); err != nil {
		return nil, err
	}
	if req.MinPrice, err = floatParam(query, "min_price"); err != nil {
		return nil, err
	}
	if req.MaxPrice, err = floatParam(query, "max_price"); err != nil {
		return nil, err
	}

	return req, nil
}

func stringParam(query url.Values, key string) *string {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func intParam(query url.Values, key string) (*int, error) {
	v := stringParam(query, key)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	return &n, nil
}

func floatParam(query url.Values, key string) (*float64, error) {
	v := stringParam(query, key)
	if v == nil {
		return nil, nil
	}
	f, err := strconv.ParseFloat(*v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

// GetListing handles GET /api/cars/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingIDParam(r)
	if !ok {
		utils.ResponseBadRequest(w, "Invalid listing ID", nil)
		return
	}

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get listing")
		return
	}

	utils.ResponseSuccess(w, "success", listing)
}

// GetQuote handles GET /api/cars/{id}/quote?from=&to=
func (h *ListingHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := listingIDParam(r)
	if !ok {
		utils.ResponseBadRequest(w, "Invalid listing ID", nil)
		return
	}

	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	if from == "" || to == "" {
		utils.ResponseBadRequest(w, "from and to are required", nil)
		return
	}

	quote, err := h.service.GetQuote(r.Context(), id, from, to)
	if err != nil {
		handleServiceError(w, h.log, err, "get quote")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// DeletePhoto handles POST /api/photos/delete
func (h *ListingHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.DeletePhotoRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := h.service.DeletePhoto(r.Context(), userID, req.URL); err != nil {
		handleServiceError(w, h.log, err, "delete photo")
		return
	}

	utils.ResponseSuccess(w, "Photo deleted", nil)
}
