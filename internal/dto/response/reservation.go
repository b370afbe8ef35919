package response

import (
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/pricing"
)

type ReservationResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	ListingID   int64     `json:"listing_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Days        int       `json:"days"`
	BasePrice   float64   `json:"base_price"`
	Discount    float64   `json:"discount"`
	TotalPrice  float64   `json:"total_price"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	AmountMinor int64     `json:"amount_minor"`
}

type CheckoutResponse struct {
	CheckoutURL string              `json:"checkout_url"`
	Reservation ReservationResponse `json:"reservation"`
}

func ReservationToResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID.String(),
		Code:        r.Code,
		ListingID:   r.ListingID,
		StartDate:   r.StartDate.Format(pricing.DateLayout),
		EndDate:     r.EndDate.Format(pricing.DateLayout),
		Days:        r.Days,
		BasePrice:   r.BasePrice,
		Discount:    r.Discount,
		TotalPrice:  r.TotalPrice,
		Currency:    r.Currency,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		AmountMinor: r.AmountMinor,
	}
}
