package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequireAdmin rejects requests without a signed-in admin session.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := Ctx(c)
		if !rc.Authenticated {
			log.Debug().Str("path", c.Path()).Str("ip", c.IP()).Msg("🚫 admin session required")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Please log in to access this page",
			})
		}

		c.Locals("admin_username", rc.AdminUsername)
		return c.Next()
	}
}
