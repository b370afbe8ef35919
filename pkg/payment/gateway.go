package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrSignature is returned by ConstructEvent when the payload was not signed with the
// webhook secret, the signature header is malformed, or the timestamp is too old.
var ErrSignature = errors.New("webhook signature verification failed")

// Event types the reconciliation handler inspects.
const (
	EventAccountUpdated                = "account.updated"
	EventCapabilityUpdated             = "capability.updated"
	EventExternalAccountCreated        = "account.external_account.created"
	EventPersonCreated                 = "person.created"
	EventPersonUpdated                 = "person.updated"
	EventCheckoutSessionCompleted      = "checkout.session.completed"
	EventCheckoutSessionExpired        = "checkout.session.expired"
	EventCheckoutSessionAsyncSucceeded = "checkout.session.async_payment_succeeded"
)

// Gateway is the narrow surface of the payment platform the marketplace needs.
type Gateway interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
	CreateAccountLink(ctx context.Context, params AccountLinkParams) (string, error)
	CreateLoginLink(ctx context.Context, accountID string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	ConstructEvent(payload []byte, signatureHeader string) (*Event, error)
}

type CreateAccountParams struct {
	FirstName string
	LastName  string
	Email     string
}

type Account struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	ChargesEnabled bool   `json:"charges_enabled"`
}

type AccountLinkParams struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

// CheckoutSessionParams describes a single line item, one-time payment whose proceeds minus
// ApplicationFee are transferred to DestinationAccountID. The platform refuses ExpiresAt
// less than 30 minutes or more than 24 hours ahead; zero keeps its default.
type CheckoutSessionParams struct {
	Currency             string
	ProductName          string
	ImageURL             string
	UnitAmount           int64
	ApplicationFee       int64
	DestinationAccountID string
	SuccessURL           string
	CancelURL            string
	ClientReferenceID    string
	Metadata             map[string]string
	ExpiresAt            time.Time
}

type CheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
}

// Paid reports whether the session collected the funds.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

// Event is a verified webhook event. Data holds the raw JSON of event.data.object.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

func (e *Event) Account() (*Account, error) {
	var account Account
	if err := json.Unmarshal(e.Data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (e *Event) CheckoutSession() (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(e.Data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
