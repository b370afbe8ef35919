package wire

import (
	"net/http"

	"car-share/internal/adaptor"
	"car-share/internal/data/repository"
	"car-share/internal/usecase"
	"car-share/pkg/middleware"
	"car-share/pkg/payment"
	"car-share/pkg/storage"
	"car-share/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type App struct {
	Router  *chi.Mux
	Sweeper *usecase.ReservationSweeper
}

// Wiring builds services, handlers and the router on top of the repositories and the
// external clients.
func Wiring(
	repo *repository.Repository,
	gateway payment.Gateway,
	photos storage.PhotoStore,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, gateway, photos, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, repo, logger),
		Sweeper: usecase.NewReservationSweeper(repo, config, logger),
	}
}

func setupRouter(handler *adaptor.Handler, repo *repository.Repository, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireAuth(r, handler.Auth, handler.Profile, repo, logger)
	wireBilling(r, handler.Billing, repo, logger)
	wireListing(r, handler.Listing, repo, logger)
	wireCheckout(r, handler.Checkout, repo, logger)
	wireWebhook(r, handler.Webhook)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
