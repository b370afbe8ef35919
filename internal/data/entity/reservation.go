package entity

import (
	"time"

	"car-share/internal/pricing"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationPendingPayment ReservationStatus = "pending_payment"
	ReservationConfirmed      ReservationStatus = "confirmed"
	ReservationCancelled      ReservationStatus = "cancelled"
	ReservationExpired        ReservationStatus = "expired"
)

// Terminal statuses never change again.
func (s ReservationStatus) Terminal() bool {
	return s != ReservationPendingPayment
}

// Reservation ties a paid checkout to a listing, a renter and a date range.
type Reservation struct {
	BaseNoDelete
	Code                string            `db:"code"`
	ListingID           int64             `db:"listing_id"`
	RenterID            uuid.UUID         `db:"renter_id"`
	StartDate           time.Time         `db:"start_date"`
	EndDate             time.Time         `db:"end_date"`
	Days                int               `db:"days"`
	BasePrice           float64           `db:"base_price"`
	Discount            float64           `db:"discount"`
	TotalPrice          float64           `db:"total_price"`
	AmountMinor         int64             `db:"amount_minor"`
	ApplicationFeeMinor int64             `db:"application_fee_minor"`
	Currency            string            `db:"currency"`
	CheckoutSessionID   *string           `db:"checkout_session_id"`
	Status              ReservationStatus `db:"status"`
}

func (r *Reservation) Dates() pricing.DateRange {
	return pricing.NewDateRange(r.StartDate, r.EndDate)
}
