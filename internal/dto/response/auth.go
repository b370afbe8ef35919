package response

import (
	"time"

	"car-share/internal/data/entity"
)

type AuthResponse struct {
	UserID     string    `json:"user_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
}

// RegisterResponse is returned after signup. The session logs the new user in right away;
// the email still has to be confirmed with the mailed code.
type RegisterResponse struct {
	AuthResponse
	Profile ProfileResponse `json:"profile"`
}

type ProfileResponse struct {
	ID                    string `json:"id"`
	FullName              string `json:"full_name"`
	Email                 string `json:"email"`
	ConnectedAccountID    string `json:"connected_account_id,omitempty"`
	StripeConnectedLinked bool   `json:"stripe_connected_linked"`
	AccountStatus         string `json:"account_status"`
	IsVerified            bool   `json:"is_verified"`
}

func AuthToResponse(user *entity.User, session *entity.Session) AuthResponse {
	resp := AuthResponse{
		UserID:     user.ID.String(),
		Email:      user.Email,
		IsVerified: user.EmailVerified,
	}

	if session != nil {
		resp.Token = session.Token.String()
		resp.ExpiresAt = session.ExpiresAt
	}

	return resp
}

func ProfileToResponse(profile *entity.Profile, user *entity.User) ProfileResponse {
	resp := ProfileResponse{
		ID:                    profile.ID.String(),
		FullName:              profile.FullName,
		Email:                 profile.Email,
		StripeConnectedLinked: profile.StripeConnectedLinked,
		AccountStatus:         string(profile.AccountState()),
	}
	if profile.ConnectedAccountID != nil {
		resp.ConnectedAccountID = *profile.ConnectedAccountID
	}
	if user != nil {
		resp.IsVerified = user.EmailVerified
	}
	return resp
}
