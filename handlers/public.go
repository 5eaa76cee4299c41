package handlers

import (
	"net/url"

	"tips-publish-system/services"

	"github.com/gofiber/fiber/v2"
)

// PublicHandler serves the reader-facing site.
type PublicHandler struct {
	queries *services.QueryService
}

func NewPublicHandler(queries *services.QueryService) *PublicHandler {
	return &PublicHandler{queries: queries}
}

func SetupPublicRoutes(app *fiber.App, h *PublicHandler) {
	app.Get("/", h.Home)
	app.Get("/results", h.Results)
	app.Get("/prediction/:slug", h.Prediction)
	app.Get("/leagues/:league", h.League)

	api := app.Group("/api")
	api.Get("/search", h.Search)
	api.Get("/stats", h.Stats)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

// Home lists upcoming predictions, soonest first.
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	page, err := h.queries.Upcoming(c.UserContext(), pageParam(c))
	if err != nil {
		return err
	}
	stats, err := h.queries.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"matches":    page.Matches,
		"pagination": page.Pagination,
		"stats":      stats,
	})
}

func (h *PublicHandler) Results(c *fiber.Ctx) error {
	page, err := h.queries.Results(c.UserContext(), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Prediction shows one match with related fixtures and counts the view.
func (h *PublicHandler) Prediction(c *fiber.Ctx) error {
	detail, err := h.queries.Detail(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (h *PublicHandler) League(c *fiber.Ctx) error {
	league := c.Params("league")
	if decoded, err := url.PathUnescape(league); err == nil {
		league = decoded
	}
	page, err := h.queries.League(c.UserContext(), league, pageParam(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"league":     league,
		"matches":    page.Matches,
		"pagination": page.Pagination,
	})
}

func (h *PublicHandler) Search(c *fiber.Ctx) error {
	matches, err := h.queries.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(matches)
}

func (h *PublicHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.queries.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
