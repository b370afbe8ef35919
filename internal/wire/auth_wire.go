package wire

import (
	"car-share/internal/adaptor"
	"car-share/internal/data/repository"
	"car-share/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	profileHandler *adaptor.ProfileHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Post("/api/send-otp", authHandler.SendOTP)
	r.Post("/api/verify-email", authHandler.VerifyEmail)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Post("/api/logout", authHandler.Logout)
		r.Get("/api/user/profile", profileHandler.GetProfile)
	})
}
