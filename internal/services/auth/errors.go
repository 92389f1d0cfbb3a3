package auth

import "crypto-pulse/internal/apperr"

var (
	ErrMissingCredentials = apperr.Validation("email or password was required")
	ErrUserExists         = apperr.Conflict("user already exists")
	ErrInvalidCredentials = apperr.Auth("Invalid credentials")
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrInvalidOTP         = apperr.Auth("Invalid or expired OTP")
	ErrPasswordUnchanged  = apperr.Validation("password not entered or entered the same password")
	ErrInvalidToken       = apperr.Unauthorized("invalid or expired token")
)

// ErrGenAccessToken is returned when we cannot create a JWT.
var ErrGenAccessToken = apperr.Internal("failed to generate access token", nil)
