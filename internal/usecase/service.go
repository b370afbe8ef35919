package usecase

import (
	"car-share/internal/data/repository"
	"car-share/pkg/payment"
	"car-share/pkg/storage"
	"car-share/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	Profile  ProfileService
	Billing  BillingService
	Listing  ListingService
	Checkout CheckoutService
	Webhook  WebhookService
}

func NewService(repo *repository.Repository, gateway payment.Gateway, photos storage.PhotoStore, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Auth:     NewAuthService(repo, gateway, config, log),
		Profile:  NewProfileService(repo, log),
		Billing:  NewBillingService(repo, gateway, config, log),
		Listing:  NewListingService(repo, photos, config, log),
		Checkout: NewCheckoutService(repo, gateway, config, log),
		Webhook:  NewWebhookService(repo, gateway, log),
	}
}
