package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer token issued at login.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// NewSession issues a token valid for ttl. Empty client details are stored as NULL.
func NewSession(userID uuid.UUID, ttl time.Duration, userAgent, ipAddress string, now time.Time) *Session {
	return &Session{
		BaseSimple: NewBaseSimple(now),
		UserID:     userID,
		Token:      uuid.New(),
		UserAgent:  optional(userAgent),
		IPAddress:  optional(ipAddress),
		ExpiresAt:  now.Add(ttl),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
