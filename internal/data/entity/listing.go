package entity

import (
	"errors"
	"fmt"
	"time"

	"car-share/internal/pricing"

	"github.com/google/uuid"
)

type FuelPolicy string

const (
	FuelPolicyFullToFull FuelPolicy = "Full-to-full"
	FuelPolicyPrepaid    FuelPolicy = "Prepaid"
)

// Listing is a car offered for rent. Photos are ordered, the first one is the cover.
type Listing struct {
	ID      int64     `db:"id"`
	OwnerID uuid.UUID `db:"owner_id"`

	Make              string   `db:"make"`
	Model             string   `db:"model"`
	Year              int      `db:"year"`
	VehicleType       string   `db:"vehicle_type"`
	Transmission      string   `db:"transmission"`
	FuelType          string   `db:"fuel_type"`
	SeatingCapacity   int      `db:"seating_capacity"`
	NumberOfDoors     int      `db:"number_of_doors"`
	TrunkSpace        string   `db:"trunk_space"`
	Description       string   `db:"description"`
	Features          []string `db:"features"`
	SpecialConditions []string `db:"special_conditions"`
	Photos            []string `db:"photos"`
	LicensePlate      string   `db:"license_plate"`
	VIN               *string  `db:"vin"`

	PricePerDay        float64    `db:"price_per_day"`
	WeeklyDiscount     *float64   `db:"weekly_discount"`
	MonthlyDiscount    *float64   `db:"monthly_discount"`
	MileageLimit       *int       `db:"mileage_limit"`
	ExtraMileageCharge *float64   `db:"extra_mileage_charge"`
	FuelPolicy         FuelPolicy `db:"fuel_policy"`
	MinRentalDuration  int        `db:"min_rental_duration"`
	MaxRentalDuration  int        `db:"max_rental_duration"`

	AvailabilityFrom time.Time `db:"availability_from"`
	AvailabilityTo   time.Time `db:"availability_to"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Validate checks the invariants that span several fields.
func (l *Listing) Validate() error {
	var errs []error

	if l.OwnerID == uuid.Nil {
		errs = append(errs, errors.New("owner is required"))
	}
	if l.AvailabilityFrom.After(l.AvailabilityTo) {
		errs = append(errs, errors.New("availability_from must not be after availability_to"))
	}
	if l.MinRentalDuration < 1 {
		errs = append(errs, errors.New("min_rental_duration must be at least 1 day"))
	}
	if l.MinRentalDuration > l.MaxRentalDuration {
		errs = append(errs, errors.New("min_rental_duration must not exceed max_rental_duration"))
	}
	if l.PricePerDay < 0 {
		errs = append(errs, errors.New("price_per_day must not be negative"))
	}
	if err := checkPercent("weekly_discount", l.WeeklyDiscount); err != nil {
		errs = append(errs, err)
	}
	if err := checkPercent("monthly_discount", l.MonthlyDiscount); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func checkPercent(field string, v *float64) error {
	if v != nil && (*v < 0 || *v > 100) {
		return fmt.Errorf("%s must be between 0 and 100", field)
	}
	return nil
}

func (l *Listing) PricingRules() pricing.Rules {
	return pricing.Rules{
		PricePerDay:     l.PricePerDay,
		WeeklyDiscount:  l.WeeklyDiscount,
		MonthlyDiscount: l.MonthlyDiscount,
		MinDays:         l.MinRentalDuration,
		MaxDays:         l.MaxRentalDuration,
	}
}

func (l *Listing) Availability() pricing.DateRange {
	return pricing.NewDateRange(l.AvailabilityFrom, l.AvailabilityTo)
}

// Title is the checkout line item name.
func (l *Listing) Title() string {
	return l.Make + " " + l.Model
}

// CoverPhoto returns the first photo or an empty string.
func (l *Listing) CoverPhoto() string {
	if len(l.Photos) == 0 {
		return ""
	}
	return l.Photos[0]
}
