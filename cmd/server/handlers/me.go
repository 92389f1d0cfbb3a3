package handlers

import (
	"crypto-pulse/cmd/server/handlers/handlerutil"

	"github.com/gofiber/fiber/v2"
)

// Me returns the authenticated user's record.
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} auth.User
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /me [get]
func Me(c *fiber.Ctx) error {
	user, err := handlerutil.CurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
