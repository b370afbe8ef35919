package repository

import (
	"car-share/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Session     SessionRepository
	OTP         OTPRepository
	Profile     ProfileRepository
	Listing     ListingRepository
	Reservation ReservationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		OTP:         NewOTPRepository(db, log),
		Profile:     NewProfileRepository(db, log),
		Listing:     NewListingRepository(db, log),
		Reservation: NewReservationRepository(db, log),
	}
}
