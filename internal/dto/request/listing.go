package request

// ListingRequest is the listing submission form. Photos are URLs of files already uploaded
// to object storage.
type ListingRequest struct {
	Make              string   `json:"make" validate:"required,max=100"`
	Model             string   `json:"model" validate:"required,max=100"`
	Year              int      `json:"year" validate:"required,gte=1900,lte=2100"`
	LicensePlate      string   `json:"license_plate" validate:"required,max=32"`
	VIN               *string  `json:"vin,omitempty" validate:"omitempty,max=32"`
	Transmission      string   `json:"transmission" validate:"required,oneof=Manual Automatic"`
	FuelType          string   `json:"fuel_type" validate:"required,oneof=Gasoline Diesel Electric Hybrid"`
	VehicleType       string   `json:"vehicle_type" validate:"required,oneof=Sedan SUV Hatchback Coupe Convertible Wagon Van Pickup Minivan Luxury"`
	SeatingCapacity   int      `json:"seating_capacity" validate:"required,min=1,max=60"`
	NumberOfDoors     int      `json:"number_of_doors" validate:"required,min=1,max=10"`
	TrunkSpace        string   `json:"trunk_space" validate:"max=100"`
	Description       string   `json:"description" validate:"required,min=10"`
	Features          []string `json:"features,omitempty" validate:"dive,required,max=100"`
	SpecialConditions []string `json:"special_conditions,omitempty" validate:"dive,required,max=200"`
	Photos            []string `json:"photos,omitempty" validate:"max=20,dive,url"`

	PricePerDay        float64  `json:"price_per_day" validate:"gte=0"`
	WeeklyDiscount     *float64 `json:"weekly_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	MonthlyDiscount    *float64 `json:"monthly_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	MileageLimit       *int     `json:"mileage_limit,omitempty" validate:"omitempty,min=0"`
	ExtraMileageCharge *float64 `json:"extra_mileage_charge,omitempty" validate:"omitempty,gte=0"`
	FuelPolicy         string   `json:"fuel_policy" validate:"required,oneof=Full-to-full Prepaid"`
	MinRentalDuration  int      `json:"min_rental_duration" validate:"required,min=1"`
	MaxRentalDuration  int      `json:"max_rental_duration" validate:"required,gtefield=MinRentalDuration"`
	AvailabilityFrom   string   `json:"availability_from" validate:"required,datetime=2006-01-02"`
	AvailabilityTo     string   `json:"availability_to" validate:"required,datetime=2006-01-02"`
}

// ListingSearchRequest carries the parsed query string of GET /api/cars.
type ListingSearchRequest struct {
	PaginatedRequest
	Make            *string  `validate:"omitempty,max=100"`
	Model           *string  `validate:"omitempty,max=100"`
	Year            *int     `validate:"omitempty,gte=1900,lte=2100"`
	Transmission    *string  `validate:"omitempty,oneof=Manual Automatic"`
	FuelType        *string  `validate:"omitempty,oneof=Gasoline Diesel Electric Hybrid"`
	VehicleType     *string  `validate:"omitempty,oneof=Sedan SUV Hatchback Coupe Convertible Wagon Van Pickup Minivan Luxury"`
	SeatingCapacity *int     `validate:"omitempty,min=1"`
	MinPrice        *float64 `validate:"omitempty,gte=0"`
	MaxPrice        *float64 `validate:"omitempty,gte=0"`
	From            *string  `validate:"omitempty,datetime=2006-01-02"`
	To              *string  `validate:"omitempty,datetime=2006-01-02"`
}
