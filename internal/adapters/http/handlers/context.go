package handlers

import (
	"strconv"

	"village-sabha/internal/adapters/persistence/models"

	"github.com/gofiber/fiber/v2"
)

// currentUser returns the user set by the auth middleware
func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("user").(*models.User)
	return user, ok && user != nil
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
