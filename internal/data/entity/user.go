package entity

import (
	"strings"
	"time"
)

// User is the sign-in identity. Its profile shares the same ID.
type User struct {
	Base
	Email         string `db:"email"`
	PasswordHash  string `db:"password"`
	EmailVerified bool   `db:"email_verified"`
	IsActive      bool   `db:"is_active"`
}

// NewUser returns an active account whose email still needs confirming.
func NewUser(email, passwordHash string, now time.Time) *User {
	return &User{
		Base:         NewBase(now),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
}

// NormalizeEmail matches the case-insensitive unique index on users.email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) CanSignIn() bool {
	return u.IsActive && !u.Deleted()
}

func (u *User) MarkVerified(now time.Time) {
	u.EmailVerified = true
	u.UpdatedAt = now
}
