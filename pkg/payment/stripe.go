package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"car-share/pkg/utils"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
)

// ErrMalformedEvent is returned when a correctly signed payload is not a valid event.
var ErrMalformedEvent = errors.New("malformed webhook event")

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	log           *zap.Logger
}

// NewStripeGateway builds a client whose HTTP calls time out after cfg.Timeout and are
// never retried locally; redelivery is left to Stripe.
func NewStripeGateway(cfg utils.StripeConfig, log *zap.Logger) *StripeGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	backendConfig := func() *stripe.BackendConfig {
		return &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
		}
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig()),
	}

	return &StripeGateway{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		log:           log.With(zap.String("gateway", "stripe")),
	}
}

func (g *StripeGateway) CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error) {
	accountParams := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Email:        stripe.String(params.Email),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
		Individual: &stripe.PersonParams{
			FirstName: stripe.String(params.FirstName),
			LastName:  stripe.String(params.LastName),
			Email:     stripe.String(params.Email),
		},
	}
	accountParams.Context = ctx

	acct, err := g.api.Accounts.New(accountParams)
	if err != nil {
		g.log.Error("Failed to create connected account", zap.Error(err), zap.String("email", params.Email))
		return nil, fmt.Errorf("stripe create account: %w", err)
	}

	g.log.Info("Connected account created", zap.String("account_id", acct.ID))

	return &Account{
		ID:             acct.ID,
		Email:          acct.Email,
		ChargesEnabled: acct.ChargesEnabled,
	}, nil
}

func (g *StripeGateway) DeleteAccount(ctx context.Context, accountID string) error {
	params := &stripe.AccountParams{}
	params.Context = ctx

	if _, err := g.api.Accounts.Del(accountID, params); err != nil {
		g.log.Error("Failed to delete connected account", zap.Error(err), zap.String("account_id", accountID))
		return fmt.Errorf("stripe delete account %s: %w", accountID, err)
	}

	g.log.Info("Connected account deleted", zap.String("account_id", accountID))
	return nil
}

func (g *StripeGateway) CreateAccountLink(ctx context.Context, params AccountLinkParams) (string, error) {
	linkParams := &stripe.AccountLinkParams{
		Account:    stripe.String(params.AccountID),
		RefreshURL: stripe.String(params.RefreshURL),
		ReturnURL:  stripe.String(params.ReturnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	linkParams.Context = ctx

	link, err := g.api.AccountLinks.New(linkParams)
	if err != nil {
		return "", fmt.Errorf("stripe create account link for %s: %w", params.AccountID, err)
	}

	return link.URL, nil
}

func (g *StripeGateway) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.LoginLinkParams{
		Account: stripe.String(accountID),
	}
	params.Context = ctx

	link, err := g.api.LoginLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create login link for %s: %w", accountID, err)
	}

	return link.URL, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(params.ProductName),
	}
	if params.ImageURL != "" {
		productData.Images = stripe.StringSlice([]string{params.ImageURL})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(params.Currency),
					UnitAmount:  stripe.Int64(params.UnitAmount),
					ProductData: productData,
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(params.ApplicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(params.DestinationAccountID),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	if params.ClientReferenceID != "" {
		sessionParams.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}
	if !params.ExpiresAt.IsZero() {
		sessionParams.ExpiresAt = stripe.Int64(params.ExpiresAt.Unix())
	}
	for key, value := range params.Metadata {
		sessionParams.AddMetadata(key, value)
	}
	sessionParams.Context = ctx

	session, err := g.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		g.log.Error("Failed to create checkout session",
			zap.Error(err),
			zap.String("destination", params.DestinationAccountID),
			zap.Int64("unit_amount", params.UnitAmount),
		)
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:                session.ID,
		URL:               session.URL,
		ClientReferenceID: session.ClientReferenceID,
		PaymentStatus:     string(session.PaymentStatus),
		Metadata:          session.Metadata,
	}, nil
}

// ConstructEvent verifies the Stripe-Signature header against the webhook secret.
// Events signed for another API version are accepted; only the fields in Account and
// CheckoutSession are read from them.
func (g *StripeGateway) ConstructEvent(payload []byte, signatureHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return nil, fmt.Errorf("%w: %v", ErrSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}

	return &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Data: event.Data.Raw,
	}, nil
}
