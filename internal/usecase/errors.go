package usecase

import (
	"errors"
	"fmt"

	"car-share/internal/pricing"
	"car-share/pkg/utils"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrSelfBooking         = errors.New("hosts cannot book their own car")
	ErrDatesUnavailable    = errors.New("the car is already booked for some of these dates")
	ErrInvalidRange        = pricing.ErrInvalidRange
	ErrOutsideAvailability = pricing.ErrOutsideAvailability

	ErrListingNotFound     = errors.New("listing not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrUserNotFound        = errors.New("user not found")

	ErrHostNotPayable          = errors.New("the host cannot receive payments yet")
	ErrMissingConnectedAccount = errors.New("no connected payment account")
	ErrNotLinked               = errors.New("connected payment account is not active")
	ErrEmailTaken              = errors.New("email already registered")
	ErrAlreadyVerified         = errors.New("email already verified")

	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrForbidden          = errors.New("forbidden")

	// ErrUnreconciledPayment means money was collected for dates that are no longer held.
	ErrUnreconciledPayment = errors.New("paid reservation could not be confirmed")
)

func validationError(fieldErrors map[string]string) error {
	return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(fieldErrors))
}

// IsValidation reports whether err should be shown to the caller as a bad request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrOutsideAvailability) ||
		errors.Is(err, ErrDatesUnavailable) ||
		errors.Is(err, ErrSelfBooking) ||
		errors.Is(err, ErrInvalidOTP)
}
