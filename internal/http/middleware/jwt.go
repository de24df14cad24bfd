package middleware

import (
	"strings"

	"backend-antrian-klinik/internal/config"
	"backend-antrian-klinik/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Missing authorization header",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid authorization format",
			})
		}

		claims, err := config.ValidateToken(secret, tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid or expired token",
			})
		}

		p := claims.Principal()
		c.Locals(principalKey, p)
		c.Locals("user_id", p.UserID)
		c.Locals("role", p.Role)

		return c.Next()
	}
}

// Principal returns the caller set by JWTAuth.
func Principal(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(principalKey).(models.Principal)
	return p, ok
}

func RoleAuth(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Anda tidak memiliki akses ke resource ini",
		})
	}
}
