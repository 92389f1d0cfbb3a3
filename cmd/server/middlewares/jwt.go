package middlewares

import (
	"errors"

	"crypto-pulse/cmd/server/ctxkeys"
	"crypto-pulse/cmd/server/handlers/httperr"
	"crypto-pulse/internal/config"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/services/auth"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWT verifies the Bearer token with cfg.JWTSecret and stores the "user_id"
// claim in ctx.Locals(ctxkeys.UserIDKey). Any failure is a 401.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return httperr.Fail(httperr.ErrUnauthorized)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return httperr.Fail(httperr.ErrUnauthorized)
			}

			userID, err := auth.UserIDFromClaims(claims)
			if err != nil {
				logger.L().Warn("token without usable user_id", "path", c.Path())
				return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: "Invalid token"})
			}

			c.Locals(ctxkeys.UserIDKey, userID.Hex())
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.L().Debug("jwt rejected", "path", c.Path(), "error", err)
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: "No token, authorization denied"})
			}
			return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: "Token is not valid"})
		},
	})
}
