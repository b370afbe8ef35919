package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConnectedAccountStatus string

const (
	AccountStatusNone     ConnectedAccountStatus = "none"
	AccountStatusPending  ConnectedAccountStatus = "pending"
	AccountStatusActive   ConnectedAccountStatus = "active"
	AccountStatusDisabled ConnectedAccountStatus = "disabled"
)

// Profile shares its id with the auth user. StripeConnectedLinked is true exactly when
// AccountStatus is active.
type Profile struct {
	ID                    uuid.UUID              `db:"id"`
	FullName              string                 `db:"full_name"`
	Email                 string                 `db:"email"`
	ConnectedAccountID    *string                `db:"connected_account_id"`
	StripeConnectedLinked bool                   `db:"stripe_connected_linked"`
	AccountStatus         ConnectedAccountStatus `db:"account_status"`
	CreatedAt             time.Time              `db:"created_at"`
	UpdatedAt             time.Time              `db:"updated_at"`
}

// AccountState derives the lifecycle state from the stored columns.
func (p *Profile) AccountState() ConnectedAccountStatus {
	if p.ConnectedAccountID == nil || *p.ConnectedAccountID == "" {
		return AccountStatusNone
	}
	switch {
	case p.StripeConnectedLinked:
		return AccountStatusActive
	case p.AccountStatus == AccountStatusDisabled:
		return AccountStatusDisabled
	default:
		return AccountStatusPending
	}
}

func (p *Profile) HasConnectedAccount() bool {
	return p.AccountState() != AccountStatusNone
}

// CanReceivePayouts reports whether listings of this host may be created.
func (p *Profile) CanReceivePayouts() bool {
	return p.AccountState() == AccountStatusActive
}
