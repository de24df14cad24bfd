package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

// BasicAuth guards operational endpoints such as /metrics.
func BasicAuth(user, pass string) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Users: map[string]string{
			user: pass,
		},
		Unauthorized: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthorized",
			})
		},
	})
}
