package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// defaultWatchlist seeds every new account.
var defaultWatchlist = []string{"bitcoin", "ethereum", "solana", "cardano", "tron"}

// DefaultWatchlist returns a fresh copy of the starter coin ids.
func DefaultWatchlist() []string {
	out := make([]string, len(defaultWatchlist))
	copy(out, defaultWatchlist)
	return out
}

// User represents a user in the system
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	Email        string        `bson:"email" json:"email" example:"a@x.com"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	OTP          string        `bson:"otp,omitempty" json:"-"`
	OTPExpiresAt *time.Time    `bson:"otp_expires_at,omitempty" json:"-"`
	Cryptos      []string      `bson:"cryptos" json:"cryptos" example:"bitcoin,ethereum"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// NewUser builds a user record with a fresh id and the default watchlist.
func NewUser(email, passwordHash string, now time.Time) *User {
	return &User{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: passwordHash,
		Cryptos:      DefaultWatchlist(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasPendingOTP reports whether a reset code was issued and not yet consumed.
func (u *User) HasPendingOTP() bool {
	return u.OTP != "" && u.OTPExpiresAt != nil
}

// SignUpRequest represents a user registration request. Missing fields are
// reported by the service so the message stays stable.
type SignUpRequest struct {
	Email    string `json:"email" validate:"omitempty,email" example:"a@x.com"`
	Password string `json:"password" validate:"omitempty,password" example:"pw123456"`
}

// SignInRequest represents a user login request
type SignInRequest struct {
	Email    string `json:"email" validate:"max=254" example:"a@x.com"`
	Password string `json:"password" validate:"max=72" example:"pw123456"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"a@x.com"`
}

// VerifyOTPRequest completes a password reset.
type VerifyOTPRequest struct {
	Email    string `json:"email" validate:"required,email" example:"a@x.com"`
	OTP      string `json:"otp" validate:"omitempty,otp" example:"482913"`
	Password string `json:"password" validate:"omitempty,password" example:"newpass123"`
}

// Response is returned by signup and login.
type Response struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJleHAiOjE3MTcyMzkyMjIsImlhdCI6MTcxNzIzOTIyMiwidXNlcl9pZCI6IjY4M2NkYjhhYTk2YWQ3MWU4ZTA3NWJkMSJ9.sig"`
	User  *User  `json:"user"`
}

// MessageResponse carries a confirmation for the password-reset flow.
type MessageResponse struct {
	Msg string `json:"msg" example:"OTP sent to email"`
}
