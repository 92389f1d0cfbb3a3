package handlerutil

import (
	"crypto-pulse/cmd/server/ctxkeys"
	"crypto-pulse/cmd/server/handlers/httperr"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GetUserID extracts user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "GetUserID", "path", c.Path())
		return bson.NilObjectID, httperr.Fail(httperr.ErrUserNotAuthenticated)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "GetUserID", "userID", userIDStr, "path", c.Path(), "error", err)
		return bson.NilObjectID, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// CurrentUser returns the user record loaded by the LoadUser middleware.
func CurrentUser(c *fiber.Ctx) (*auth.User, error) {
	user, ok := c.Locals(ctxkeys.CurrentUserKey).(*auth.User)
	if !ok || user == nil {
		return nil, httperr.Fail(httperr.ErrUserNotAuthenticated)
	}
	return user, nil
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := v.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ParseAndValidateQuery parses query parameters and validates them
func ParseAndValidateQuery(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	if err := c.QueryParser(req); err != nil {
		logger.L().Warn("failed to parse query params", "handler", handlerName, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := v.Struct(req); err != nil {
		logger.L().Warn("query validation failed", "handler", handlerName, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ServiceError logs a failed service call and converts it for the error handler.
func ServiceError(c *fiber.Ctx, err error, handlerName string) error {
	e := httperr.FromError(err)
	fields := []any{"handler", handlerName, "status", e.Status, "error", err}
	if uid, ok := c.Locals(ctxkeys.UserIDKey).(string); ok {
		fields = append(fields, "userID", uid)
	}

	if e.Status >= fiber.StatusInternalServerError {
		logger.L().Error("service operation failed", fields...)
	} else {
		logger.L().Info("service operation rejected", fields...)
	}
	return httperr.Fail(e)
}
