package usecase

import (
	"context"
	"errors"
	"fmt"

	"car-share/internal/data/entity"
	"car-share/internal/data/repository"
	"car-share/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookService applies verified payment platform events to the local store. Every
// branch is idempotent so redelivered events end in the same state.
type WebhookService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Reconcile(ctx context.Context, event *payment.Event) error
}

type webhookService struct {
	repo    *repository.Repository
	gateway payment.Gateway
	log     *zap.Logger
}

func NewWebhookService(repo *repository.Repository, gateway payment.Gateway, log *zap.Logger) WebhookService {
	return &webhookService{
		repo:    repo,
		gateway: gateway,
		log:     log.With(zap.String("service", "webhook")),
	}
}

func (s *webhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		s.log.Warn("Rejected webhook", zap.Error(err))
		return err
	}

	return s.Reconcile(ctx, event)
}

func (s *webhookService) Reconcile(ctx context.Context, event *payment.Event) error {
	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	switch event.Type {
	case payment.EventAccountUpdated:
		account, err := event.Account()
		if err != nil {
			return fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		return s.accountUpdated(ctx, log, account)

	case payment.EventCheckoutSessionCompleted, payment.EventCheckoutSessionAsyncSucceeded:
		session, err := event.CheckoutSession()
		if err != nil {
			return fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		if !session.Paid() {
			log.Info("Checkout completed without payment yet", zap.String("session_id", session.ID))
			return nil
		}
		return s.settleReservation(ctx, log, session, entity.ReservationConfirmed)

	case payment.EventCheckoutSessionExpired:
		session, err := event.CheckoutSession()
		if err != nil {
			return fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		return s.settleReservation(ctx, log, session, entity.ReservationCancelled)

	case payment.EventCapabilityUpdated,
		payment.EventExternalAccountCreated,
		payment.EventPersonCreated,
		payment.EventPersonUpdated:
		log.Debug("Acknowledged account event")
		return nil

	default:
		log.Info("Unhandled event type")
		return nil
	}
}

func (s *webhookService) accountUpdated(ctx context.Context, log *zap.Logger, account *payment.Account) error {
	log = log.With(zap.String("account_id", account.ID))

	profile, err := s.repo.Profile.FindByEmail(ctx, account.Email)
	if err != nil {
		return fmt.Errorf("find profile: %w", err)
	}

	if !account.ChargesEnabled {
		// still onboarding unless the account was active before
		if profile == nil || profile.AccountState() != entity.AccountStatusActive {
			log.Debug("Account not ready for charges")
			return nil
		}
		if _, err := s.repo.Profile.SetAccountStatus(ctx, profile.ID, entity.AccountStatusDisabled); err != nil {
			return fmt.Errorf("disable account: %w", err)
		}
		log.Warn("Connected account disabled", zap.String("user_id", profile.ID.String()))
		return nil
	}

	if profile == nil {
		log.Warn("No profile for connected account", zap.String("email", account.Email))
		return ErrProfileNotFound
	}

	if profile.ConnectedAccountID == nil || *profile.ConnectedAccountID != account.ID {
		log.Warn("Adopting connected account id from event", zap.String("user_id", profile.ID.String()))
		profile.ConnectedAccountID = &account.ID
		if err := s.repo.Profile.Upsert(ctx, profile); err != nil {
			return fmt.Errorf("store account id: %w", err)
		}
		profile.StripeConnectedLinked = false
		profile.AccountStatus = entity.AccountStatusPending
	}

	if profile.AccountState() == entity.AccountStatusActive {
		return nil
	}

	found, err := s.repo.Profile.SetAccountStatus(ctx, profile.ID, entity.AccountStatusActive)
	if err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	if !found {
		return ErrProfileNotFound
	}

	log.Info("Connected account linked", zap.String("user_id", profile.ID.String()))
	return nil
}

// settleReservation ends a pending reservation. Unknown references and replays are
// acknowledged so the platform does not keep redelivering the event.
func (s *webhookService) settleReservation(ctx context.Context, log *zap.Logger, session *payment.CheckoutSession, status entity.ReservationStatus) error {
	log = log.With(zap.String("session_id", session.ID))

	ref := session.ClientReferenceID
	if ref == "" {
		ref = session.Metadata["reservation_id"]
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		log.Warn("Checkout session without reservation reference", zap.String("reference", ref))
		return nil
	}
	log = log.With(zap.String("reservation_id", id.String()))

	changed, err := s.repo.Reservation.TransitionStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("transition reservation: %w", err)
	}
	if changed {
		log.Info("Reservation settled", zap.String("status", string(status)))
		return nil
	}

	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find reservation: %w", err)
	}
	if reservation == nil {
		log.Warn("Checkout session for unknown reservation")
		return nil
	}
	if status != entity.ReservationConfirmed || reservation.Status == entity.ReservationConfirmed {
		log.Info("Reservation already settled", zap.String("status", string(reservation.Status)))
		return nil
	}

	// paid after the hold lapsed
	return s.reinstate(ctx, log, reservation)
}

func (s *webhookService) reinstate(ctx context.Context, log *zap.Logger, reservation *entity.Reservation) error {
	lapsed := reservation.Status

	reinstated, err := s.repo.Reservation.Reinstate(ctx, reservation.ID)
	if errors.Is(err, repository.ErrReservationOverlap) {
		log.Error("Payment received for dates that were booked again",
			zap.String("code", reservation.Code),
			zap.String("previous_status", string(lapsed)),
			zap.Int64("listing_id", reservation.ListingID),
			zap.Int64("amount", reservation.AmountMinor),
		)
		return fmt.Errorf("%w: reservation %s", ErrUnreconciledPayment, reservation.Code)
	}
	if err != nil {
		return fmt.Errorf("reinstate reservation: %w", err)
	}
	if !reinstated {
		log.Info("Reservation already settled")
		return nil
	}

	log.Warn("Late payment confirmed lapsed reservation",
		zap.String("code", reservation.Code),
		zap.String("previous_status", string(lapsed)),
	)
	return nil
}
