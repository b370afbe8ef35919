package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/dto/request"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedHost(repos *mockRepos, status entity.ConnectedAccountStatus) *entity.Profile {
	profile := &entity.Profile{
		ID:                    uuid.New(),
		FullName:              "Hanna Host",
		Email:                 "host@example.com",
		AccountStatus:         status,
		StripeConnectedLinked: status == entity.AccountStatusActive,
	}
	if status != entity.AccountStatusNone {
		profile.ConnectedAccountID = ptr("acct_host")
	}
	repos.Profile.put(profile)
	return profile
}

func seedListing(repos *mockRepos, ownerID uuid.UUID) *entity.Listing {
	listing := &entity.Listing{
		OwnerID:           ownerID,
		Make:              "Toyota",
		Model:             "Corolla",
		Year:              2020,
		Photos:            []string{"https://cdn.example.com/f/front.jpg", "https://cdn.example.com/f/back.jpg"},
		PricePerDay:       50,
		WeeklyDiscount:    ptr(10.0),
		MinRentalDuration: 1,
		MaxRentalDuration: 30,
		AvailabilityFrom:  date("2025-06-01"),
		AvailabilityTo:    date("2025-06-30"),
	}
	if err := repos.Listing.Create(context.Background(), listing); err != nil {
		panic(err)
	}
	return listing
}

func newCheckoutFixture(status entity.ConnectedAccountStatus) (*mockRepos, *MockGateway, CheckoutService, *entity.Listing) {
	repos := newMockRepos()
	gateway := &MockGateway{}
	host := seedHost(repos, status)
	listing := seedListing(repos, host.ID)
	srv := NewCheckoutService(repos.Repository(), gateway, testConfig(), zap.NewNop())
	return repos, gateway, srv, listing
}

func TestStartCheckoutAmounts(t *testing.T) {
	_, gateway, srv, listing := newCheckoutFixture(entity.AccountStatusActive)

	session, err := srv.StartCheckout(context.Background(), listing.ID, 123.45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.URL == "" {
		t.Error("expected checkout url")
	}

	if len(gateway.CheckoutCall) != 1 {
		t.Fatalf("expected one checkout call, got %d", len(gateway.CheckoutCall))
	}
	params := gateway.CheckoutCall[0]
	if params.UnitAmount != 12345 {
		t.Errorf("UnitAmount = %d, want 12345", params.UnitAmount)
	}
	if params.ApplicationFee != 1235 {
		t.Errorf("ApplicationFee = %d, want 1235", params.ApplicationFee)
	}
	if params.DestinationAccountID != "acct_host" {
		t.Errorf("unexpected destination %q", params.DestinationAccountID)
	}
	if params.Currency != "eur" || params.ProductName != "Toyota Corolla" {
		t.Errorf("unexpected line item: %+v", params)
	}
	if params.ImageURL != "https://cdn.example.com/f/front.jpg" {
		t.Errorf("expected cover photo, got %q", params.ImageURL)
	}
	if params.SuccessURL != "https://cars.example.com/payment/success" || params.CancelURL != "https://cars.example.com/payment/cancel" {
		t.Errorf("unexpected redirect urls: %s %s", params.SuccessURL, params.CancelURL)
	}
	if until := time.Until(params.ExpiresAt); until < 30*time.Minute || until > 31*time.Minute {
		t.Errorf("session expires in %s", until)
	}
}

func TestStartCheckoutRejectsNonPositiveTotal(t *testing.T) {
	_, gateway, srv, listing := newCheckoutFixture(entity.AccountStatusActive)

	_, err := srv.StartCheckout(context.Background(), listing.ID, 0)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if len(gateway.CheckoutCall) != 0 {
		t.Error("gateway must not be called")
	}
}

func TestCreateCheckout(t *testing.T) {
	repos, gateway, srv, listing := newCheckoutFixture(entity.AccountStatusActive)
	renterID := uuid.New()

	resp, err := srv.CreateCheckout(context.Background(), renterID, &request.CheckoutRequest{
		ListingID: listing.ID,
		From:      "2025-06-10",
		To:        "2025-06-17",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 7 days at 50 with the weekly 10% discount
	if resp.Reservation.Days != 7 || resp.Reservation.TotalPrice != 315 {
		t.Errorf("unexpected price: %+v", resp.Reservation)
	}
	if resp.Reservation.Status != string(entity.ReservationPendingPayment) {
		t.Errorf("expected pending reservation, got %s", resp.Reservation.Status)
	}
	if resp.CheckoutURL == "" {
		t.Error("expected checkout url")
	}

	params := gateway.CheckoutCall[0]
	if params.UnitAmount != 31500 || params.ApplicationFee != 3150 {
		t.Errorf("unexpected amounts %d/%d", params.UnitAmount, params.ApplicationFee)
	}
	if params.ClientReferenceID != resp.Reservation.ID {
		t.Errorf("client reference %q does not match reservation %q", params.ClientReferenceID, resp.Reservation.ID)
	}
	if params.Metadata["reservation_id"] != resp.Reservation.ID || params.Metadata["listing_id"] == "" {
		t.Errorf("unexpected metadata %v", params.Metadata)
	}

	stored := repos.Reservation.get(uuid.MustParse(resp.Reservation.ID))
	if stored == nil {
		t.Fatal("reservation not stored")
	}
	if stored.CheckoutSessionID == nil || *stored.CheckoutSessionID != "cs_test_1" {
		t.Errorf("checkout session not stored: %v", stored.CheckoutSessionID)
	}
	if stored.RenterID != renterID || stored.AmountMinor != 31500 {
		t.Errorf("unexpected stored reservation: %+v", stored)
	}
	if want := stored.CreatedAt.Add(31 * time.Minute); !params.ExpiresAt.Equal(want) {
		t.Errorf("session expires at %s, want %s", params.ExpiresAt, want)
	}
}

func TestCreateCheckoutErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  entity.ConnectedAccountStatus
		renter  func(l *entity.Listing) uuid.UUID
		req     func(l *entity.Listing) *request.CheckoutRequest
		seed    func(repos *mockRepos, l *entity.Listing)
		wantErr error
	}{
		{
			name:    "listing not found",
			status:  entity.AccountStatusActive,
			req:     func(l *entity.Listing) *request.CheckoutRequest { return &request.CheckoutRequest{ListingID: 999, From: "2025-06-10", To: "2025-06-12"} },
			wantErr: ErrListingNotFound,
		},
		{
			name:    "host still onboarding",
			status:  entity.AccountStatusPending,
			wantErr: ErrHostNotPayable,
		},
		{
			name:    "host without account",
			status:  entity.AccountStatusNone,
			wantErr: ErrHostNotPayable,
		},
		{
			name:    "host renting own car",
			status:  entity.AccountStatusActive,
			renter:  func(l *entity.Listing) uuid.UUID { return l.OwnerID },
			wantErr: ErrSelfBooking,
		},
		{
			name:   "outside availability",
			status: entity.AccountStatusActive,
			req: func(l *entity.Listing) *request.CheckoutRequest {
				return &request.CheckoutRequest{ListingID: l.ID, From: "2025-06-25", To: "2025-07-05"}
			},
			wantErr: ErrOutsideAvailability,
		},
		{
			name:   "end before start",
			status: entity.AccountStatusActive,
			req: func(l *entity.Listing) *request.CheckoutRequest {
				return &request.CheckoutRequest{ListingID: l.ID, From: "2025-06-12", To: "2025-06-10"}
			},
			wantErr: ErrInvalidRange,
		},
		{
			name:   "dates already reserved",
			status: entity.AccountStatusActive,
			seed: func(repos *mockRepos, l *entity.Listing) {
				repos.Reservation.put(&entity.Reservation{
					BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: time.Now()},
					ListingID:    l.ID,
					RenterID:     uuid.New(),
					StartDate:    date("2025-06-12"),
					EndDate:      date("2025-06-14"),
					Status:       entity.ReservationConfirmed,
				})
			},
			wantErr: ErrDatesUnavailable,
		},
		{
			name:   "missing dates",
			status: entity.AccountStatusActive,
			req: func(l *entity.Listing) *request.CheckoutRequest {
				return &request.CheckoutRequest{ListingID: l.ID}
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, gateway, srv, listing := newCheckoutFixture(tt.status)
			if tt.seed != nil {
				tt.seed(repos, listing)
			}

			renterID := uuid.New()
			if tt.renter != nil {
				renterID = tt.renter(listing)
			}
			req := &request.CheckoutRequest{ListingID: listing.ID, From: "2025-06-10", To: "2025-06-13"}
			if tt.req != nil {
				req = tt.req(listing)
			}

			_, err := srv.CreateCheckout(context.Background(), renterID, req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(gateway.CheckoutCall) != 0 {
				t.Error("gateway must not be called")
			}
		})
	}
}

func TestCreateCheckoutCancelsReservationWhenGatewayFails(t *testing.T) {
	repos, gateway, srv, listing := newCheckoutFixture(entity.AccountStatusActive)
	gateway.CheckoutErr = errors.New("gateway timeout")
	renterID := uuid.New()

	_, err := srv.CreateCheckout(context.Background(), renterID, &request.CheckoutRequest{
		ListingID: listing.ID, From: "2025-06-10", To: "2025-06-12",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	reservations, _ := repos.Reservation.FindByRenter(context.Background(), renterID, 10, 0)
	if len(reservations) != 1 {
		t.Fatalf("expected one reservation, got %d", len(reservations))
	}
	if reservations[0].Status != entity.ReservationCancelled {
		t.Errorf("expected cancelled reservation, got %s", reservations[0].Status)
	}

	// the dates are free again
	gateway.CheckoutErr = nil
	if _, err := srv.CreateCheckout(context.Background(), uuid.New(), &request.CheckoutRequest{
		ListingID: listing.ID, From: "2025-06-10", To: "2025-06-12",
	}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestCreateCheckoutStoreRejectsOverlap(t *testing.T) {
	repos, gateway, srv, listing := newCheckoutFixture(entity.AccountStatusActive)
	repos.Reservation.CreateErr = wrapOverlap()

	_, err := srv.CreateCheckout(context.Background(), uuid.New(), &request.CheckoutRequest{
		ListingID: listing.ID, From: "2025-06-10", To: "2025-06-12",
	})
	if !errors.Is(err, ErrDatesUnavailable) {
		t.Fatalf("expected ErrDatesUnavailable, got %v", err)
	}
	if len(gateway.CheckoutCall) != 0 {
		t.Error("gateway must not be called")
	}
}

func TestGetReservation(t *testing.T) {
	repos, _, srv, listing := newCheckoutFixture(entity.AccountStatusActive)
	renterID := uuid.New()
	res := &entity.Reservation{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: time.Now()},
		Code:         "RES-1",
		ListingID:    listing.ID,
		RenterID:     renterID,
		StartDate:    date("2025-06-10"),
		EndDate:      date("2025-06-12"),
		Status:       entity.ReservationConfirmed,
	}
	repos.Reservation.put(res)

	got, err := srv.GetReservation(context.Background(), renterID, res.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Code != "RES-1" || got.StartDate != "2025-06-10" {
		t.Errorf("unexpected reservation %+v", got)
	}

	if _, err := srv.GetReservation(context.Background(), uuid.New(), res.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := srv.GetReservation(context.Background(), renterID, uuid.New()); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestGetUserReservations(t *testing.T) {
	repos, _, srv, listing := newCheckoutFixture(entity.AccountStatusActive)
	renterID := uuid.New()
	for i := 0; i < 3; i++ {
		repos.Reservation.put(&entity.Reservation{
			BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: time.Now().Add(time.Duration(i) * time.Minute)},
			ListingID:    listing.ID,
			RenterID:     renterID,
			Status:       entity.ReservationConfirmed,
		})
	}

	page, err := srv.GetUserReservations(context.Background(), renterID, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 1 {
		t.Errorf("expected 1 item on page 2, got %d", len(page.Data))
	}
	if page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination %+v", page.Pagination)
	}
}

func TestCheckoutRequiresActiveHostAccount(t *testing.T) {
	statuses := []entity.ConnectedAccountStatus{
		entity.AccountStatusNone,
		entity.AccountStatusPending,
		entity.AccountStatusDisabled,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			_, gateway, srv, listing := newCheckoutFixture(status)

			if _, err := srv.StartCheckout(context.Background(), listing.ID, 100); !errors.Is(err, ErrHostNotPayable) {
				t.Errorf("StartCheckout: expected ErrHostNotPayable, got %v", err)
			}
			_, err := srv.CreateCheckout(context.Background(), uuid.New(), &request.CheckoutRequest{
				ListingID: listing.ID, From: "2025-06-10", To: "2025-06-12",
			})
			if !errors.Is(err, ErrHostNotPayable) {
				t.Errorf("CreateCheckout: expected ErrHostNotPayable, got %v", err)
			}
			if len(gateway.CheckoutCall) != 0 {
				t.Error("gateway must not be called")
			}
		})
	}
}

func TestCreateCheckoutBackToBack(t *testing.T) {
	repos, _, srv, listing := newCheckoutFixture(entity.AccountStatusActive)
	repos.Reservation.put(&entity.Reservation{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: time.Now()},
		ListingID:    listing.ID,
		RenterID:     uuid.New(),
		StartDate:    date("2025-06-10"),
		EndDate:      date("2025-06-14"),
		Status:       entity.ReservationConfirmed,
	})

	// picked up the day the previous renter returns it
	resp, err := srv.CreateCheckout(context.Background(), uuid.New(), &request.CheckoutRequest{
		ListingID: listing.ID, From: "2025-06-14", To: "2025-06-16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Reservation.Days != 2 {
		t.Errorf("Days = %d, want 2", resp.Reservation.Days)
	}

	_, err = srv.CreateCheckout(context.Background(), uuid.New(), &request.CheckoutRequest{
		ListingID: listing.ID, From: "2025-06-13", To: "2025-06-15",
	})
	if !errors.Is(err, ErrDatesUnavailable) {
		t.Errorf("expected ErrDatesUnavailable, got %v", err)
	}
}
