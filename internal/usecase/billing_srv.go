package usecase

import (
	"context"
	"fmt"

	"car-share/internal/data/entity"
	"car-share/internal/data/repository"
	"car-share/internal/dto/response"
	"car-share/pkg/payment"
	"car-share/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillingService drives the host's connected payment account: onboarding and dashboard
// links. The linked state itself only changes through webhook reconciliation.
type BillingService interface {
	GetBillingStatus(ctx context.Context, userID uuid.UUID) (*response.BillingStatusResponse, error)
	CreateAccountLink(ctx context.Context, userID uuid.UUID) (string, error)
	GetDashboardLink(ctx context.Context, userID uuid.UUID) (string, error)
}

type billingService struct {
	repo    *repository.Repository
	gateway payment.Gateway
	config  *utils.Config
	log     *zap.Logger
}

func NewBillingService(repo *repository.Repository, gateway payment.Gateway, config *utils.Config, log *zap.Logger) BillingService {
	return &billingService{
		repo:    repo,
		gateway: gateway,
		config:  config,
		log:     log.With(zap.String("service", "billing")),
	}
}

func (s *billingService) profile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	profile, err := s.repo.Profile.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *billingService) GetBillingStatus(ctx context.Context, userID uuid.UUID) (*response.BillingStatusResponse, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &response.BillingStatusResponse{
		AccountStatus:     string(profile.AccountState()),
		Linked:            profile.StripeConnectedLinked,
		CanCreateListings: profile.CanReceivePayouts(),
	}
	if profile.ConnectedAccountID != nil {
		resp.ConnectedAccountID = *profile.ConnectedAccountID
	}

	return resp, nil
}

// CreateAccountLink returns a hosted onboarding URL that sends the host back to the billing
// page when done or expired.
func (s *billingService) CreateAccountLink(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !profile.HasConnectedAccount() {
		return "", ErrMissingConnectedAccount
	}

	url, err := s.gateway.CreateAccountLink(ctx, payment.AccountLinkParams{
		AccountID:  *profile.ConnectedAccountID,
		RefreshURL: s.config.App.BillingURL(),
		ReturnURL:  s.config.App.BillingURL(),
	})
	if err != nil {
		s.log.Error("Failed to create account link",
			zap.Error(err), zap.String("user_id", userID.String()))
		return "", fmt.Errorf("create account link: %w", err)
	}

	return url, nil
}

func (s *billingService) GetDashboardLink(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !profile.CanReceivePayouts() {
		return "", ErrNotLinked
	}

	url, err := s.gateway.CreateLoginLink(ctx, *profile.ConnectedAccountID)
	if err != nil {
		s.log.Error("Failed to create dashboard link",
			zap.Error(err), zap.String("user_id", userID.String()))
		return "", fmt.Errorf("create dashboard link: %w", err)
	}

	return url, nil
}
