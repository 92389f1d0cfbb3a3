package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrDuplicate is returned when trying to create a user with an email that already exists
var ErrDuplicate = errors.New("user with this email already exists")

// UsersRepo defines the persistence operations the auth flow needs.
// Lookups return ErrUserNotFound when no record matches.
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
	// SetOTP stores the code and its expiry in a single write.
	SetOTP(ctx context.Context, id bson.ObjectID, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id bson.ObjectID) error
	// UpdatePassword replaces the hash and clears any pending OTP.
	UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
}

// Mailer delivers password-reset codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}
