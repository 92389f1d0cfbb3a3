package auth

import (
	"context"

	"crypto-pulse/cmd/server/handlers/handlerutil"
	"crypto-pulse/cmd/server/handlers/httperr"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthService defines the interface for auth service
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.Response, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (*auth.Response, error)
	RequestPasswordReset(ctx context.Context, email string) (*auth.MessageResponse, error)
	VerifyPasswordReset(ctx context.Context, req auth.VerifyOTPRequest) (*auth.MessageResponse, error)
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Creates an account with the default watchlist and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpRequest true "Sign up request"
// @Success 201 {object} auth.Response
// @Failure 400 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /signup [post]
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SignUp"); err != nil {
		return err
	}

	resp, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(c, err, "SignUp")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInRequest true "Login request"
// @Success 200 {object} auth.Response
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /login [post]
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.SignInRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Login"); err != nil {
		return err
	}

	resp, err := h.authService.SignIn(c.UserContext(), req)
	if err != nil {
		logger.L().Info("login rejected", "handler", "Login", "ip", c.IP())
		return handlerutil.ServiceError(c, err, "Login")
	}

	return c.JSON(resp)
}

// ForgotPassword issues a reset code
// @Summary Request a password-reset OTP
// @Description Mails a 6-digit code valid for OTP_TTL_MINUTES
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.ForgotPasswordRequest true "Account email"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /forgot-password [post]
func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var req auth.ForgotPasswordRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "ForgotPassword"); err != nil {
		return err
	}

	resp, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return handlerutil.ServiceError(c, err, "ForgotPassword")
	}

	return c.JSON(resp)
}

// VerifyOTP completes a password reset
// @Summary Verify OTP and set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.VerifyOTPRequest true "Code and new password"
// @Success 200 {object} auth.MessageResponse
// @Failure 400 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /verify-otp [post]
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req auth.VerifyOTPRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "VerifyOTP"); err != nil {
		return err
	}

	resp, err := h.authService.VerifyPasswordReset(c.UserContext(), req)
	if err != nil {
		return handlerutil.ServiceError(c, err, "VerifyOTP")
	}

	return c.JSON(resp)
}

// Google is the declared OAuth sign-in route.
// @Summary Google sign-in (not implemented)
// @Tags auth
// @Produce json
// @Failure 501 {object} httperr.E
// @Router /google [post]
func (h *Handlers) Google(c *fiber.Ctx) error {
	return httperr.Fail(httperr.E{
		Status:  fiber.StatusNotImplemented,
		Message: "Google Sign-in not implemented yet",
	})
}
