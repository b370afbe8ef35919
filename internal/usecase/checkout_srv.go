package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/data/repository"
	"car-share/internal/dto/request"
	"car-share/internal/dto/response"
	"car-share/internal/pricing"
	"car-share/pkg/payment"
	"car-share/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// the platform needs at least 30 minutes; one more minute covers clock drift
	minCheckoutWindow = 31 * time.Minute
	maxCheckoutWindow = 24 * time.Hour
	// sweepGrace is how long after a session closed the sweeper waits for its event.
	sweepGrace = 10 * time.Minute
)

// checkoutWindow is how long a checkout session stays payable for the configured TTL.
func checkoutWindow(ttl time.Duration) time.Duration {
	switch {
	case ttl < minCheckoutWindow:
		return minCheckoutWindow
	case ttl > maxCheckoutWindow:
		return maxCheckoutWindow
	default:
		return ttl
	}
}

type CheckoutService interface {
	// CreateCheckout prices the requested dates, holds them with a pending reservation and
	// opens a hosted checkout session for it.
	CreateCheckout(ctx context.Context, renterID uuid.UUID, req *request.CheckoutRequest) (*response.CheckoutResponse, error)
	// StartCheckout opens a checkout session for an already computed total without
	// reserving anything.
	StartCheckout(ctx context.Context, listingID int64, total float64) (*payment.CheckoutSession, error)
	GetUserReservations(ctx context.Context, renterID uuid.UUID, page, perPage int) (*response.PaginatedResponse[response.ReservationResponse], error)
	GetReservation(ctx context.Context, renterID, reservationID uuid.UUID) (*response.ReservationResponse, error)
}

type checkoutService struct {
	repo    *repository.Repository
	gateway payment.Gateway
	config  *utils.Config
	log     *zap.Logger
}

func NewCheckoutService(repo *repository.Repository, gateway payment.Gateway, config *utils.Config, log *zap.Logger) CheckoutService {
	return &checkoutService{
		repo:    repo,
		gateway: gateway,
		config:  config,
		log:     log.With(zap.String("service", "checkout")),
	}
}

// payableListing loads the listing and the connected account that receives the payout.
func (s *checkoutService) payableListing(ctx context.Context, listingID int64) (*entity.Listing, string, error) {
	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		return nil, "", fmt.Errorf("find listing: %w", err)
	}
	if listing == nil {
		return nil, "", ErrListingNotFound
	}

	owner, err := s.repo.Profile.FindByID(ctx, listing.OwnerID)
	if err != nil {
		return nil, "", fmt.Errorf("find host profile: %w", err)
	}
	if owner == nil || !owner.CanReceivePayouts() {
		return nil, "", ErrHostNotPayable
	}

	return listing, *owner.ConnectedAccountID, nil
}

func (s *checkoutService) CreateCheckout(ctx context.Context, renterID uuid.UUID, req *request.CheckoutRequest) (*response.CheckoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	requested, err := pricing.ParseDateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	listing, accountID, err := s.payableListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID == renterID {
		return nil, ErrSelfBooking
	}

	if err := pricing.CheckAvailability(listing.Availability(), requested); err != nil {
		return nil, err
	}

	quote, err := pricing.ComputePrice(listing.PricingRules(), requested)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.Reservation.FindActiveByListing(ctx, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("find active reservations: %w", err)
	}
	for _, r := range active {
		if r.Dates().SharesNights(requested) {
			return nil, ErrDatesUnavailable
		}
	}

	unitAmount := pricing.ToMinorUnits(quote.Total)
	now := time.Now()
	reservation := &entity.Reservation{
		BaseNoDelete:        entity.NewBaseNoDelete(now),
		Code:                utils.GenerateReservationCode(now),
		ListingID:           listing.ID,
		RenterID:            renterID,
		StartDate:           requested.From,
		EndDate:             requested.To,
		Days:                quote.Days,
		BasePrice:           quote.BasePrice,
		Discount:            quote.Discount,
		TotalPrice:          quote.Total,
		AmountMinor:         unitAmount,
		ApplicationFeeMinor: pricing.ApplicationFee(unitAmount),
		Currency:            s.config.Stripe.Currency,
		Status:              entity.ReservationPendingPayment,
	}

	if err := s.repo.Reservation.Create(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrReservationOverlap) {
			return nil, ErrDatesUnavailable
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	session, err := s.openSession(ctx, listing, accountID, unitAmount, reservation)
	if err != nil {
		if _, cancelErr := s.repo.Reservation.TransitionStatus(context.WithoutCancel(ctx), reservation.ID, entity.ReservationCancelled); cancelErr != nil {
			s.log.Error("Failed to cancel reservation after checkout failure",
				zap.Error(cancelErr), zap.String("reservation_id", reservation.ID.String()))
		}
		return nil, err
	}

	if err := s.repo.Reservation.SetCheckoutSession(ctx, reservation.ID, session.ID); err != nil {
		// the webhook still finds the reservation through client_reference_id
		s.log.Warn("Failed to store checkout session on reservation",
			zap.Error(err),
			zap.String("reservation_id", reservation.ID.String()),
			zap.String("session_id", session.ID))
	} else {
		reservation.CheckoutSessionID = &session.ID
	}

	s.log.Info("Checkout started",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("code", reservation.Code),
		zap.Int64("listing_id", listing.ID),
		zap.Int64("amount", unitAmount),
	)

	return &response.CheckoutResponse{
		CheckoutURL: session.URL,
		Reservation: response.ReservationToResponse(reservation),
	}, nil
}

func (s *checkoutService) StartCheckout(ctx context.Context, listingID int64, total float64) (*payment.CheckoutSession, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total must be positive", ErrValidation)
	}

	listing, accountID, err := s.payableListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, listing, accountID, pricing.ToMinorUnits(total), nil)
}

func (s *checkoutService) openSession(ctx context.Context, listing *entity.Listing, accountID string, unitAmount int64, reservation *entity.Reservation) (*payment.CheckoutSession, error) {
	params := payment.CheckoutSessionParams{
		Currency:             s.config.Stripe.Currency,
		ProductName:          listing.Title(),
		ImageURL:             listing.CoverPhoto(),
		UnitAmount:           unitAmount,
		ApplicationFee:       pricing.ApplicationFee(unitAmount),
		DestinationAccountID: accountID,
		SuccessURL:           s.config.App.PaymentSuccessURL(),
		CancelURL:            s.config.App.PaymentCancelURL(),
		Metadata: map[string]string{
			"listing_id": strconv.FormatInt(listing.ID, 10),
		},
	}
	opened := time.Now()
	if reservation != nil {
		opened = reservation.CreatedAt
	}
	params.ExpiresAt = opened.Add(checkoutWindow(s.config.Reservation.TTL))

	if reservation != nil {
		params.ClientReferenceID = reservation.ID.String()
		params.Metadata["reservation_id"] = reservation.ID.String()
		params.Metadata["reservation_code"] = reservation.Code
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.log.Error("Failed to create checkout session",
			zap.Error(err),
			zap.Int64("listing_id", listing.ID),
			zap.Int64("unit_amount", unitAmount),
		)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return session, nil
}

func (s *checkoutService) GetUserReservations(ctx context.Context, renterID uuid.UUID, page, perPage int) (*response.PaginatedResponse[response.ReservationResponse], error) {
	pagination := request.PaginatedRequest{Page: page, PerPage: perPage}

	reservations, err := s.repo.Reservation.FindByRenter(ctx, renterID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, fmt.Errorf("find reservations: %w", err)
	}

	total, err := s.repo.Reservation.CountByRenter(ctx, renterID)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	items := make([]response.ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, response.ReservationToResponse(r))
	}

	return response.NewPaginatedResponse(items, page, pagination.Limit(), total), nil
}

func (s *checkoutService) GetReservation(ctx context.Context, renterID, reservationID uuid.UUID) (*response.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	if reservation.RenterID != renterID {
		return nil, ErrForbidden
	}

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}
