package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// APIKeyMiddleware guards the machine admin API with the X-API-Key header.
// With no key configured every request is refused.
func APIKeyMiddleware(apiKey string) fiber.Handler {
	if apiKey == "" {
		log.Warn().Msg("⚠️ API_KEY is not set, machine admin API disabled")
	}

	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "API key authentication is not configured",
			})
		}

		key := c.Get("X-API-Key")
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key missing",
			})
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			log.Warn().Str("path", c.Path()).Str("ip", c.IP()).Msg("❌ invalid API key")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid API key",
			})
		}

		return c.Next()
	}
}
