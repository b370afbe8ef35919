package wire

import (
	"car-share/internal/adaptor"
	"car-share/internal/data/repository"
	"car-share/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBilling(
	r chi.Router,
	billingHandler *adaptor.BillingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/billing", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Get("/", billingHandler.GetStatus)
		r.Post("/account-link", billingHandler.CreateAccountLink)
		r.Post("/dashboard-link", billingHandler.CreateDashboardLink)
	})
}
