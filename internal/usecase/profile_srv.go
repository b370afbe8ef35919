package usecase

import (
	"context"
	"fmt"

	"car-share/internal/data/repository"
	"car-share/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.ProfileResponse, error)
}

type profileService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewProfileService(repo *repository.Repository, log *zap.Logger) ProfileService {
	return &profileService{
		repo: repo,
		log:  log.With(zap.String("service", "profile")),
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.ProfileResponse, error) {
	profile, err := s.repo.Profile.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	resp := response.ProfileToResponse(profile, user)
	return &resp, nil
}
