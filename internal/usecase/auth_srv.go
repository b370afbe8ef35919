package usecase

import (
	"context"
	"fmt"
	"time"

	"car-share/internal/data/entity"
	"car-share/internal/data/repository"
	"car-share/internal/dto/request"
	"car-share/internal/dto/response"
	"car-share/pkg/payment"
	"car-share/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.RegisterResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	SendOTP(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error
}

type authService struct {
	repo    *repository.Repository
	gateway payment.Gateway
	config  *utils.Config
	log     *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	gateway payment.Gateway,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:    repo,
		gateway: gateway,
		config:  config,
		log:     log.With(zap.String("service", "auth")),
	}
}

// Register signs up a host. The connected payment account is created first; if the user
// and profile cannot be stored afterwards the account is deleted again before the error
// is returned.
func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.RegisterResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}
	email := entity.NormalizeEmail(req.Email)

	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.gateway.CreateAccount(ctx, payment.CreateAccountParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
	})
	if err != nil {
		s.log.Error("Signup aborted: connected account not created", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("create connected account: %w", err)
	}

	now := time.Now()
	user := entity.NewUser(email, hashedPassword, now)
	profile := &entity.Profile{
		ID:                 user.ID,
		FullName:           req.FullName(),
		Email:              email,
		ConnectedAccountID: &account.ID,
		AccountStatus:      entity.AccountStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.User.CreateWithProfile(ctx, user, profile); err != nil {
		s.compensateAccount(ctx, account.ID)
		return nil, fmt.Errorf("store signup: %w", err)
	}

	if err := s.issueOTP(ctx, user); err != nil {
		s.log.Warn("Failed to send verification OTP after register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	session, err := s.createSession(ctx, user.ID, req.Client)
	if err != nil {
		s.log.Warn("Failed to create session after register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("account_id", account.ID))

	return &response.RegisterResponse{
		AuthResponse: response.AuthToResponse(user, session),
		Profile:      response.ProfileToResponse(profile, user),
	}, nil
}

// compensateAccount runs even when the request context is already cancelled.
func (s *authService) compensateAccount(ctx context.Context, accountID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Stripe.Timeout)
	defer cancel()

	if err := s.gateway.DeleteAccount(ctx, accountID); err != nil {
		s.log.Error("Compensation failed: orphaned connected account",
			zap.Error(err), zap.String("account_id", accountID))
		return
	}

	s.log.Info("Connected account deleted after failed signup", zap.String("account_id", accountID))
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	user, err := s.repo.User.FindByEmail(ctx, entity.NormalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil {
		s.log.Warn("User not found for login", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	if !user.CanSignIn() {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: account is deactivated", ErrForbidden)
	}

	session, err := s.createSession(ctx, user.ID, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	tokenUUID, err := uuid.Parse(token)
	if err != nil {
		return ErrUnauthorized
	}

	revoked, err := s.repo.Session.Revoke(ctx, tokenUUID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if !revoked {
		return fmt.Errorf("%w: session not found or already revoked", ErrUnauthorized)
	}

	s.log.Info("User logged out")
	return nil
}

func (s *authService) SendOTP(ctx context.Context, email string) error {
	user, err := s.repo.User.FindByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	return s.issueOTP(ctx, user)
}

func (s *authService) VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Verify email validation failed", zap.Any("errors", errs))
		return validationError(errs)
	}

	otp, err := s.repo.OTP.Consume(ctx, entity.NormalizeEmail(req.Email), req.OTP, entity.OTPTypeEmailVerification)
	if err != nil {
		return fmt.Errorf("consume OTP: %w", err)
	}
	if otp == nil {
		return ErrInvalidOTP
	}

	user, err := s.repo.User.FindByID(ctx, otp.UserID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	user.MarkVerified(time.Now())

	if err := s.repo.User.Update(ctx, user); err != nil {
		return fmt.Errorf("verify email of %s: %w", user.ID.String(), err)
	}

	s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID, client request.ClientInfo) (*entity.Session, error) {
	ttl := time.Duration(s.config.Session.ExpiryHours) * time.Hour
	session := entity.NewSession(userID, ttl, client.UserAgent, client.IPAddress, time.Now())

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// issueOTP replaces any outstanding confirmation code. There is no mail transport yet, the
// code is written to the log.
func (s *authService) issueOTP(ctx context.Context, user *entity.User) error {
	ttl := time.Duration(s.config.OTP.ExpiryMinutes) * time.Minute
	otp := entity.NewEmailVerificationOTP(user, utils.GenerateOTP(s.config.OTP.Length), ttl, time.Now())

	if err := s.repo.OTP.Issue(ctx, otp); err != nil {
		return fmt.Errorf("store OTP: %w", err)
	}

	s.log.Info("OTP generated",
		zap.String("email", otp.Email),
		zap.String("otp_code", otp.OTPCode),
		zap.Time("expires_at", otp.ExpiresAt),
	)

	return nil
}
