package wire

import (
	"car-share/internal/adaptor"
	"car-share/internal/data/repository"
	"car-share/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireListing(
	r chi.Router,
	listingHandler *adaptor.ListingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Get("/api/cars", listingHandler.SearchListings)
	r.Get("/api/cars/{id}", listingHandler.GetListing)
	r.Get("/api/cars/{id}/quote", listingHandler.GetQuote)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/photos/delete", listingHandler.DeletePhoto)

		// hosts are sent to the billing page until their payout account is active
		r.With(middleware.RequireLinkedAccount(repo.Profile, log)).Post("/api/cars", listingHandler.CreateListing)
	})
}
