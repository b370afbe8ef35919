package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"

	// PlatformFeePercent is the share of every checkout kept by the platform.
	PlatformFeePercent = 10

	weeklyTierDays  = 7
	monthlyTierDays = 30
)

var (
	ErrInvalidRange        = errors.New("invalid rental range")
	ErrOutsideAvailability = errors.New("requested dates are outside the listing availability")
)

type Tier string

const (
	TierNone    Tier = "none"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// DateRange is an inclusive range of calendar dates in UTC.
type DateRange struct {
	From time.Time
	To   time.Time
}

func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: truncateDay(from), To: truncateDay(to)}
}

// ParseDateRange parses two YYYY-MM-DD dates. It does not check their order.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: from date %q must be YYYY-MM-DD", ErrInvalidRange, from)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: to date %q must be YYYY-MM-DD", ErrInvalidRange, to)
	}
	return NewDateRange(f, t), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days counts started days between From and To.
func (r DateRange) Days() int {
	return int(math.Ceil(r.To.Sub(r.From).Hours() / 24))
}

// Overlaps reports whether both ranges share at least one day. Touching ends count.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.From.After(other.To) && !r.To.Before(other.From)
}

// SharesNights reports whether two rentals need the car on the same night. A rental
// returned on the day the next one starts does not conflict with it.
func (r DateRange) SharesNights(other DateRange) bool {
	return r.From.Before(other.To) && other.From.Before(r.To)
}

// Within reports whether r lies entirely inside other.
func (r DateRange) Within(other DateRange) bool {
	return !r.From.Before(other.From) && !r.To.After(other.To)
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

// Rules are the commercial terms of a listing that take part in pricing.
type Rules struct {
	PricePerDay     float64
	WeeklyDiscount  *float64
	MonthlyDiscount *float64
	MinDays         int
	MaxDays         int
}

type Quote struct {
	Days            int
	BasePrice       float64
	Tier            Tier
	DiscountPercent float64
	Discount        float64
	Total           float64
}

// ComputePrice prices a rental. The monthly tier wins over the weekly tier once both apply.
func ComputePrice(rules Rules, r DateRange) (Quote, error) {
	days := r.Days()
	if days <= 0 {
		return Quote{}, fmt.Errorf("%w: end date must be after start date", ErrInvalidRange)
	}
	if rules.MinDays > 0 && days < rules.MinDays {
		return Quote{}, fmt.Errorf("%w: minimum rental is %d days, got %d", ErrInvalidRange, rules.MinDays, days)
	}
	if rules.MaxDays > 0 && days > rules.MaxDays {
		return Quote{}, fmt.Errorf("%w: maximum rental is %d days, got %d", ErrInvalidRange, rules.MaxDays, days)
	}

	quote := Quote{
		Days:      days,
		BasePrice: roundCents(rules.PricePerDay * float64(days)),
		Tier:      TierNone,
	}

	switch {
	case days >= monthlyTierDays && rules.MonthlyDiscount != nil:
		quote.Tier = TierMonthly
		quote.DiscountPercent = *rules.MonthlyDiscount
	case days >= weeklyTierDays && rules.WeeklyDiscount != nil:
		quote.Tier = TierWeekly
		quote.DiscountPercent = *rules.WeeklyDiscount
	}

	quote.Discount = roundCents(quote.BasePrice * quote.DiscountPercent / 100)
	quote.Total = roundCents(quote.BasePrice - quote.Discount)

	return quote, nil
}

// CheckAvailability fails unless requested lies inside the availability window.
func CheckAvailability(window, requested DateRange) error {
	if !requested.Within(window) {
		return fmt.Errorf("%w: %s is not inside %s", ErrOutsideAvailability, requested, window)
	}
	return nil
}

// ToMinorUnits converts a currency amount to cents, rounding half up.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5 + 1e-9))
}

// ApplicationFee is PlatformFeePercent of unitAmount, rounded half up.
func ApplicationFee(unitAmount int64) int64 {
	return (unitAmount*PlatformFeePercent + 50) / 100
}

func roundCents(amount float64) float64 {
	return float64(ToMinorUnits(amount)) / 100
}
