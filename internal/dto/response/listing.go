package response

import (
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/pricing"
)

type ListingResponse struct {
	ID              int64    `json:"id"`
	Make            string   `json:"make"`
	Model           string   `json:"model"`
	Year            int      `json:"year"`
	VehicleType     string   `json:"vehicle_type"`
	Transmission    string   `json:"transmission"`
	FuelType        string   `json:"fuel_type"`
	SeatingCapacity int      `json:"seating_capacity"`
	PricePerDay     float64  `json:"price_per_day"`
	CoverPhoto      string   `json:"cover_photo,omitempty"`
	AvailableFrom   string   `json:"availability_from"`
	AvailableTo     string   `json:"availability_to"`
	WeeklyDiscount  *float64 `json:"weekly_discount,omitempty"`
	MonthlyDiscount *float64 `json:"monthly_discount,omitempty"`
}

type ListingDetailResponse struct {
	ListingResponse
	OwnerID            string    `json:"owner_id"`
	NumberOfDoors      int       `json:"number_of_doors"`
	TrunkSpace         string    `json:"trunk_space"`
	Description        string    `json:"description"`
	Features           []string  `json:"features"`
	SpecialConditions  []string  `json:"special_conditions"`
	Photos             []string  `json:"photos"`
	MileageLimit       *int      `json:"mileage_limit,omitempty"`
	ExtraMileageCharge *float64  `json:"extra_mileage_charge,omitempty"`
	FuelPolicy         string    `json:"fuel_policy"`
	MinRentalDuration  int       `json:"min_rental_duration"`
	MaxRentalDuration  int       `json:"max_rental_duration"`
	CreatedAt          time.Time `json:"created_at"`
}

type QuoteResponse struct {
	ListingID       int64   `json:"listing_id"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	Days            int     `json:"days"`
	PricePerDay     float64 `json:"price_per_day"`
	BasePrice       float64 `json:"base_price"`
	DiscountTier    string  `json:"discount_tier"`
	DiscountPercent float64 `json:"discount_percent"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
	Currency        string  `json:"currency"`
}

func ListingToResponse(l *entity.Listing) ListingResponse {
	return ListingResponse{
		ID:              l.ID,
		Make:            l.Make,
		Model:           l.Model,
		Year:            l.Year,
		VehicleType:     l.VehicleType,
		Transmission:    l.Transmission,
		FuelType:        l.FuelType,
		SeatingCapacity: l.SeatingCapacity,
		PricePerDay:     l.PricePerDay,
		CoverPhoto:      l.CoverPhoto(),
		AvailableFrom:   l.AvailabilityFrom.Format(pricing.DateLayout),
		AvailableTo:     l.AvailabilityTo.Format(pricing.DateLayout),
		WeeklyDiscount:  l.WeeklyDiscount,
		MonthlyDiscount: l.MonthlyDiscount,
	}
}

func ListingToDetailResponse(l *entity.Listing) ListingDetailResponse {
	return ListingDetailResponse{
		ListingResponse:    ListingToResponse(l),
		OwnerID:            l.OwnerID.String(),
		NumberOfDoors:      l.NumberOfDoors,
		TrunkSpace:         l.TrunkSpace,
		Description:        l.Description,
		Features:           nonNil(l.Features),
		SpecialConditions:  nonNil(l.SpecialConditions),
		Photos:             nonNil(l.Photos),
		MileageLimit:       l.MileageLimit,
		ExtraMileageCharge: l.ExtraMileageCharge,
		FuelPolicy:         string(l.FuelPolicy),
		MinRentalDuration:  l.MinRentalDuration,
		MaxRentalDuration:  l.MaxRentalDuration,
		CreatedAt:          l.CreatedAt,
	}
}

func QuoteToResponse(l *entity.Listing, r pricing.DateRange, q pricing.Quote, currency string) QuoteResponse {
	return QuoteResponse{
		ListingID:       l.ID,
		From:            r.From.Format(pricing.DateLayout),
		To:              r.To.Format(pricing.DateLayout),
		Days:            q.Days,
		PricePerDay:     l.PricePerDay,
		BasePrice:       q.BasePrice,
		DiscountTier:    string(q.Tier),
		DiscountPercent: q.DiscountPercent,
		Discount:        q.Discount,
		Total:           q.Total,
		Currency:        currency,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
