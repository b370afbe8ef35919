package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/data/query"
	"car-share/internal/data/repository"
	"car-share/internal/dto/request"
	"car-share/internal/dto/response"
	"car-share/internal/pricing"
	"car-share/pkg/storage"
	"car-share/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ListingService interface {
	CreateListing(ctx context.Context, ownerID uuid.UUID, req *request.ListingRequest) (*response.ListingDetailResponse, error)
	GetListing(ctx context.Context, id int64) (*response.ListingDetailResponse, error)
	SearchListings(ctx context.Context, req *request.ListingSearchRequest) (*response.PaginatedResponse[response.ListingResponse], error)
	GetQuote(ctx context.Context, id int64, from, to string) (*response.QuoteResponse, error)
	// DeletePhoto removes an uploaded photo. Photos attached to another host's listing
	// are refused with ErrForbidden.
	DeletePhoto(ctx context.Context, userID uuid.UUID, rawURL string) error
}

type listingService struct {
	repo   *repository.Repository
	photos storage.PhotoStore
	config *utils.Config
	log    *zap.Logger
}

func NewListingService(repo *repository.Repository, photos storage.PhotoStore, config *utils.Config, log *zap.Logger) ListingService {
	return &listingService{
		repo:   repo,
		photos: photos,
		config: config,
		log:    log.With(zap.String("service", "listing")),
	}
}

// CreateListing stores a new car. Photos were uploaded before the form was submitted, so
// they are removed from storage when the listing cannot be saved.
func (s *listingService) CreateListing(ctx context.Context, ownerID uuid.UUID, req *request.ListingRequest) (*response.ListingDetailResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create listing validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	availability, err := pricing.ParseDateRange(req.AvailabilityFrom, req.AvailabilityTo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	listing := &entity.Listing{
		OwnerID:            ownerID,
		Make:               strings.TrimSpace(req.Make),
		Model:              strings.TrimSpace(req.Model),
		Year:               req.Year,
		VehicleType:        req.VehicleType,
		Transmission:       req.Transmission,
		FuelType:           req.FuelType,
		SeatingCapacity:    req.SeatingCapacity,
		NumberOfDoors:      req.NumberOfDoors,
		TrunkSpace:         req.TrunkSpace,
		Description:        req.Description,
		Features:           nonNilStrings(req.Features),
		SpecialConditions:  nonNilStrings(req.SpecialConditions),
		Photos:             nonNilStrings(req.Photos),
		LicensePlate:       strings.ToUpper(strings.TrimSpace(req.LicensePlate)),
		VIN:                req.VIN,
		PricePerDay:        req.PricePerDay,
		WeeklyDiscount:     req.WeeklyDiscount,
		MonthlyDiscount:    req.MonthlyDiscount,
		MileageLimit:       req.MileageLimit,
		ExtraMileageCharge: req.ExtraMileageCharge,
		FuelPolicy:         entity.FuelPolicy(req.FuelPolicy),
		MinRentalDuration:  req.MinRentalDuration,
		MaxRentalDuration:  req.MaxRentalDuration,
		AvailabilityFrom:   availability.From,
		AvailabilityTo:     availability.To,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := listing.Validate(); err != nil {
		s.discardPhotos(ctx, listing.Photos)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Listing.Create(ctx, listing); err != nil {
		s.discardPhotos(ctx, listing.Photos)
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info("Listing created",
		zap.Int64("listing_id", listing.ID),
		zap.String("owner_id", ownerID.String()),
	)

	resp := response.ListingToDetailResponse(listing)
	return &resp, nil
}

// discardPhotos is best effort, failures are only logged.
func (s *listingService) discardPhotos(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}

	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		key, err := s.photos.KeyFromURL(u)
		if err != nil {
			s.log.Warn("Skipping photo with unusable URL", zap.String("url", u), zap.Error(err))
			continue
		}
		keys = append(keys, key)
	}

	if err := s.photos.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.log.Error("Failed to delete uploaded photos", zap.Error(err), zap.Strings("keys", keys))
	}
}

func (s *listingService) findListing(ctx context.Context, id int64) (*entity.Listing, error) {
	listing, err := s.repo.Listing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

func (s *listingService) GetListing(ctx context.Context, id int64) (*response.ListingDetailResponse, error) {
	listing, err := s.findListing(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.ListingToDetailResponse(listing)
	return &resp, nil
}

func (s *listingService) SearchListings(ctx context.Context, req *request.ListingSearchRequest) (*response.PaginatedResponse[response.ListingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	filter, err := toListingFilter(req)
	if err != nil {
		return nil, err
	}
	spec := query.BuildListingQuery(filter)

	listings, err := s.repo.Listing.Search(ctx, spec, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}

	total, err := s.repo.Listing.Count(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	items := make([]response.ListingResponse, 0, len(listings))
	for _, l := range listings {
		items = append(items, response.ListingToResponse(l))
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

// toListingFilter checks the combinations the single field tags cannot express.
func toListingFilter(req *request.ListingSearchRequest) (query.ListingFilter, error) {
	filter := query.ListingFilter{
		Make:            trimmed(req.Make),
		Model:           trimmed(req.Model),
		Year:            req.Year,
		Transmission:    req.Transmission,
		FuelType:        req.FuelType,
		VehicleType:     req.VehicleType,
		SeatingCapacity: req.SeatingCapacity,
	}

	switch {
	case req.MinPrice != nil && req.MaxPrice != nil:
		if *req.MinPrice > *req.MaxPrice {
			return filter, fmt.Errorf("%w: min_price must not exceed max_price", ErrValidation)
		}
		filter.PriceRange = &query.PriceRange{Min: *req.MinPrice, Max: *req.MaxPrice}
	case req.MinPrice != nil || req.MaxPrice != nil:
		return filter, fmt.Errorf("%w: min_price and max_price must be given together", ErrValidation)
	}

	switch {
	case req.From != nil && req.To != nil:
		dr, err := pricing.ParseDateRange(*req.From, *req.To)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if dr.From.After(dr.To) {
			return filter, fmt.Errorf("%w: from must not be after to", ErrValidation)
		}
		filter.DateRange = &dr
	case req.From != nil || req.To != nil:
		return filter, fmt.Errorf("%w: from and to must be given together", ErrValidation)
	}

	return filter, nil
}

func (s *listingService) GetQuote(ctx context.Context, id int64, from, to string) (*response.QuoteResponse, error) {
	requested, err := pricing.ParseDateRange(from, to)
	if err != nil {
		return nil, err
	}

	listing, err := s.findListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := pricing.CheckAvailability(listing.Availability(), requested); err != nil {
		return nil, err
	}

	quote, err := pricing.ComputePrice(listing.PricingRules(), requested)
	if err != nil {
		return nil, err
	}

	resp := response.QuoteToResponse(listing, requested, quote, s.config.Stripe.Currency)
	return &resp, nil
}

func (s *listingService) DeletePhoto(ctx context.Context, userID uuid.UUID, rawURL string) error {
	key, err := s.photos.KeyFromURL(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	owners, err := s.repo.Listing.FindOwnersByPhotoKey(ctx, key)
	if err != nil {
		return fmt.Errorf("find photo owners: %w", err)
	}
	for _, owner := range owners {
		if owner != userID {
			s.log.Warn("Refused to delete photo of another host",
				zap.String("user_id", userID.String()),
				zap.String("owner_id", owner.String()),
				zap.String("key", key),
			)
			return fmt.Errorf("%w: photo belongs to another listing", ErrForbidden)
		}
	}

	if err := s.photos.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
