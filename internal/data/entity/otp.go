package entity

import (
	"time"

	"github.com/google/uuid"
)

type OTPType string

const OTPTypeEmailVerification OTPType = "email_verification"

// OTP is a one-time code mailed to confirm the signup email.
type OTP struct {
	BaseSimple
	UserID    uuid.UUID `db:"user_id"`
	Email     string    `db:"email"`
	OTPCode   string    `db:"otp_code"`
	OTPType   OTPType   `db:"otp_type"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
}

func NewEmailVerificationOTP(user *User, code string, ttl time.Duration, now time.Time) *OTP {
	return &OTP{
		BaseSimple: NewBaseSimple(now),
		UserID:     user.ID,
		Email:      user.Email,
		OTPCode:    code,
		OTPType:    OTPTypeEmailVerification,
		ExpiresAt:  now.Add(ttl),
	}
}

func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
