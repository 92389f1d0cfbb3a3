package middlewares

import (
	"context"
	"errors"

	"crypto-pulse/cmd/server/ctxkeys"
	"crypto-pulse/cmd/server/handlers/handlerutil"
	"crypto-pulse/cmd/server/handlers/httperr"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserFinder loads a user by id.
type UserFinder interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error)
}

// LoadUser resolves the authenticated id to a stored user. It must run after
// JWT. A token for a deleted account yields 404.
func LoadUser(users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := handlerutil.GetUserID(c)
		if err != nil {
			return err
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return httperr.Fail(httperr.ErrUserNotFound)
			}
			logger.L().Error("failed to load user", "userID", userID.Hex(), "error", err)
			return httperr.Fail(httperr.ErrInternal)
		}

		c.Locals(ctxkeys.CurrentUserKey, user)
		return c.Next()
	}
}
