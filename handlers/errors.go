package handlers

import (
	"errors"
	"strconv"

	"tips-publish-system/models"
	"tips-publish-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const genericErrorMessage = "Something went wrong. Please try again later."

// ErrorHandler maps service errors to JSON responses. With showDetails the
// underlying message of unexpected errors is included for debugging.
func ErrorHandler(showDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			validationErr *models.ValidationError
			notFoundErr   *models.NotFoundError
			fiberErr      *fiber.Error
		)

		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation failed",
				"details": validationErr.Problems,
			})
		case errors.As(err, &notFoundErr):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": notFoundErr.Entity + " not found",
			})
		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		log.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Msg("❌ request failed")

		body := fiber.Map{"error": genericErrorMessage}
		if showDetails {
			body["message"] = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}

// matchID parses the :id route param. Anything that is not a positive integer
// cannot name a match.
func matchID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &models.NotFoundError{Entity: "match", Key: raw}
	}
	return uint(id), nil
}

// pageParam reads ?page=, defaulting to 1 and capped at services.MaxPage.
func pageParam(c *fiber.Ctx) int {
	return min(max(c.QueryInt("page", 1), 1), services.MaxPage)
}
