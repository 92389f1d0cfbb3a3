package handlers

import (
	"context"
	"time"

	"crypto-pulse/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const HealthzTimeout = 5 * time.Second

// Check reports the reachability of one dependency.
type Check func(ctx context.Context) error

// Healthz returns a handler that runs every check within HealthzTimeout.
// Keys name the dependency in the failure body.
// @Summary Health check
// @Description Pings MongoDB and, when configured, Redis
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /healthz [get]
func Healthz(checks map[string]Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.L().Warn("health check failed", "dependency", name, "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status": "down",
					"error":  name + ": " + err.Error(),
				})
			}
		}

		return c.JSON(fiber.Map{"status": "ok"})
	}
}
