package wire

import (
	"car-share/internal/adaptor"
	"car-share/internal/data/repository"
	"car-share/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCheckout(
	r chi.Router,
	checkoutHandler *adaptor.CheckoutHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/checkout", checkoutHandler.CreateCheckout)
		r.Get("/api/user/reservations", checkoutHandler.GetUserReservations)
		r.Get("/api/reservations/{id}", checkoutHandler.GetReservation)
	})
}

// wireWebhook registers the payment platform callback. It is authenticated by the
// signature header only.
func wireWebhook(r chi.Router, webhookHandler *adaptor.WebhookHandler) {
	r.Post("/webhook", webhookHandler.HandleWebhook)
}
