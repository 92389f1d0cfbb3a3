package httperr

import (
	"encoding/json"
	"errors"
	"maps"

	"crypto-pulse/internal/apperr"
	"crypto-pulse/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// E is an HTTP error rendered as {"message": ..., <details>...}.
type E struct {
	Status  int            `json:"-" example:"400"`
	Message string         `json:"message" example:"Bad Request"`
	Details map[string]any `json:"-"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// MarshalJSON flattens Details next to the message.
func (e E) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(e.Details)+1)
	maps.Copy(body, e.Details)
	body["message"] = e.Message
	return json.Marshal(body)
}

// JSON writes the error response.
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{Status: fiber.StatusBadRequest, Message: "Invalid input: " + err.Error()})
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Message: message}
}

// Pre-defined HTTP errors
var (
	ErrBadRequest           = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrUnauthorized         = E{Status: fiber.StatusUnauthorized, Message: "Unauthorized"}
	ErrUserNotAuthenticated = E{Status: fiber.StatusUnauthorized, Message: "User not authenticated"}
	ErrUserNotFound         = E{Status: fiber.StatusNotFound, Message: "User not found"}
	ErrTooManyRequests      = E{Status: fiber.StatusTooManyRequests, Message: "Too Many Requests"}
	ErrNotImplemented       = E{Status: fiber.StatusNotImplemented, Message: "Not Implemented"}
	ErrInternal             = InternalError("Internal Server Error")
)

// statusOf maps an application error kind to its HTTP status.
func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindAuth, apperr.KindConflict:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError converts a service error into an HTTP error. Internal failures
// keep their public message but never expose the wrapped cause.
func FromError(err error) E {
	var e E
	if errors.As(err, &e) {
		return e
	}

	if ae, ok := apperr.As(err); ok {
		return E{Status: statusOf(ae.Kind), Message: ae.Message, Details: ae.Details}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return E{Status: fe.Code, Message: fe.Message}
	}

	return ErrInternal
}

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	e := FromError(err)
	if e.Status >= fiber.StatusInternalServerError {
		logger.L().Error("request failed", "method", c.Method(), "path", c.Path(), "status", e.Status, "error", err)
	}
	return e.JSON(c)
}
