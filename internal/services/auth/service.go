package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crypto-pulse/internal/apperr"
	"crypto-pulse/internal/config"
	"crypto-pulse/internal/utils/crypto"
)

// Service handles authentication business logic
type Service struct {
	repo   UsersRepo
	mailer Mailer
	config config.Config
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new auth service
func NewService(repo UsersRepo, mailer Mailer, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// SignUp registers a new user and signs them in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Response, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrUserExists
	case err != nil && !errors.Is(err, ErrUserNotFound):
		s.log.Error("failed to look up user", "error", err)
		return nil, apperr.Internal("failed to create user", err)
	}

	hash, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, apperr.Validation(err.Error())
		}
		return nil, apperr.Internal("failed to process password", err)
	}

	user := NewUser(email, hash, s.now().UTC())
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrUserExists
		}
		s.log.Error("failed to create user", "error", err)
		return nil, apperr.Internal("failed to create user", err)
	}

	token, err := s.GenerateAccessToken(user)
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		return nil, ErrGenAccessToken.Wrap(err)
	}

	s.log.Info("user signed up", "user_id", user.ID.Hex())
	return &Response{Token: token, User: user}, nil
}

// SignIn authenticates a user
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Response, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.log.Error("failed to find user by email", "error", err)
		return nil, apperr.Internal("failed to sign in", err)
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.log.Debug("password mismatch", "user_id", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateAccessToken(user)
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		return nil, ErrGenAccessToken.Wrap(err)
	}

	return &Response{Token: token, User: user}, nil
}

// RequestPasswordReset issues a one-time code and mails it to the user.
// Unknown emails fail with ErrUserNotFound.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	code, err := crypto.GenerateOTP()
	if err != nil {
		return nil, apperr.Internal("failed to generate OTP", err)
	}

	expiresAt := s.now().UTC().Add(s.config.OTPTTL())
	if err := s.repo.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		s.log.Error("failed to store otp", "user_id", user.ID.Hex(), "error", err)
		return nil, apperr.Internal("failed to store OTP", err)
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		s.log.Error("failed to send otp", "user_id", user.ID.Hex(), "error", err)
		return nil, apperr.Upstream("failed to send OTP", err)
	}

	return &MessageResponse{Msg: "OTP sent to email"}, nil
}

// VerifyPasswordReset consumes a pending code and sets a new password.
// An expired code is cleared before the call fails.
func (s *Service) VerifyPasswordReset(ctx context.Context, req VerifyOTPRequest) (*MessageResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	if !user.HasPendingOTP() {
		return nil, ErrInvalidOTP
	}

	if !s.now().Before(*user.OTPExpiresAt) {
		if err := s.repo.ClearOTP(ctx, user.ID); err != nil {
			s.log.Error("failed to clear expired otp", "user_id", user.ID.Hex(), "error", err)
		}
		return nil, ErrInvalidOTP
	}

	if subtle.ConstantTimeCompare([]byte(user.OTP), []byte(strings.TrimSpace(req.OTP))) != 1 {
		return nil, ErrInvalidOTP
	}

	// The new password must differ from the current one; compare against the hash.
	if req.Password == "" || crypto.CheckPassword(req.Password, user.PasswordHash) == nil {
		return nil, ErrPasswordUnchanged
	}

	hash, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, apperr.Validation(err.Error())
		}
		return nil, apperr.Internal("failed to process password", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.log.Error("failed to update password", "user_id", user.ID.Hex(), "error", err)
		return nil, apperr.Internal("failed to update password", err)
	}

	s.log.Info("password reset", "user_id", user.ID.Hex())
	return &MessageResponse{Msg: "Password updated successfully"}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
