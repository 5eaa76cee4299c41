package handlers

import (
	"errors"
	"fmt"

	"tips-publish-system/middleware"
	"tips-publish-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AdminHandler serves the back office and the machine admin API.
type AdminHandler struct {
	matches   *services.MatchService
	queries   *services.QueryService
	admins    *services.AdminService
	validator *services.InputValidator
	leagues   []string
}

func NewAdminHandler(
	matches *services.MatchService,
	queries *services.QueryService,
	admins *services.AdminService,
	validator *services.InputValidator,
	leagues []string,
) *AdminHandler {
	return &AdminHandler{
		matches:   matches,
		queries:   queries,
		admins:    admins,
		validator: validator,
		leagues:   leagues,
	}
}

// SetupAdminRoutes registers the session-authenticated back office under
// /admin and the API-key protected endpoints under /api/admin.
// Routes registered before the RequireAdmin group stay public.
func SetupAdminRoutes(app *fiber.App, h *AdminHandler, sessions, loginLimiter fiber.Handler, apiKey string) {
	admin := app.Group("/admin", sessions)

	// 🔓 Session management
	admin.Post("/login", loginLimiter, h.Login)
	admin.Post("/logout", h.Logout)
	admin.Get("/session", h.Session)

	// 🔐 Back office
	secured := admin.Group("/", middleware.RequireAdmin())
	secured.Get("/dashboard", h.Dashboard)
	secured.Get("/leagues", h.Leagues)
	secured.Post("/matches", h.CreateMatch)
	secured.Get("/matches/:id", h.GetMatch)
	secured.Put("/matches/:id", h.UpdateMatch)
	secured.Post("/matches/:id", h.UpdateMatch)
	secured.Post("/matches/:id/result", h.RecordResult)
	secured.Post("/matches/:id/live", h.MarkLive)
	secured.Delete("/matches/:id", h.DeleteMatch)
	secured.Post("/bulk-import", h.BulkImport)

	// 🔑 Machine access
	machine := app.Group("/api/admin", middleware.APIKeyMiddleware(apiKey))
	machine.Post("/matches", h.CreateMatch)
	machine.Post("/bulk-import", h.BulkImport)
	machine.Post("/matches/:id/result", h.RecordResult)
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid login payload")
	}
	if err := h.validator.ValidateLogin(in); err != nil {
		return err
	}

	admin, err := h.admins.Authenticate(c.UserContext(), in.Username, in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Warn().Str("username", in.Username).Str("ip", c.IP()).Msg("🚫 failed admin login")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}
	if err != nil {
		return err
	}

	rc := middleware.Ctx(c)
	if err := rc.SignIn(admin.Username); err != nil {
		return fmt.Errorf("start admin session: %w", err)
	}
	rc.AddNotice(middleware.NoticeSuccess, "Welcome back!")

	log.Info().Str("username", admin.Username).Str("ip", c.IP()).Msg("🔓 Admin logged in")
	return c.JSON(fiber.Map{"authenticated": true, "username": admin.Username})
}

func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if err := middleware.Ctx(c).SignOut(); err != nil {
		return fmt.Errorf("destroy admin session: %w", err)
	}
	return c.JSON(fiber.Map{"authenticated": false})
}

// Session reports the sign-in state and the notices left by the previous request.
func (h *AdminHandler) Session(c *fiber.Ctx) error {
	rc := middleware.Ctx(c)
	notices := rc.Notices
	if notices == nil {
		notices = []middleware.Notice{}
	}
	return c.JSON(fiber.Map{
		"authenticated": rc.Authenticated,
		"username":      rc.AdminUsername,
		"notices":       notices,
	})
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	page, err := h.queries.Dashboard(c.UserContext(), c.Query("filter", services.FilterAll), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *AdminHandler) Leagues(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"leagues": h.leagues})
}

func (h *AdminHandler) CreateMatch(c *fiber.Ctx) error {
	form, err := parseMatchInput(c)
	if err != nil {
		return err
	}
	if err := form.validate(h.validator, false); err != nil {
		return err
	}

	ctx := c.UserContext()
	if err := storeLogos(ctx, form.logos); err != nil {
		return err
	}
	match, err := h.matches.Create(ctx, form.input)
	if err != nil {
		removeLogos(ctx, form.logos)
		return err
	}

	middleware.Ctx(c).AddNotice(middleware.NoticeSuccess, "Match created successfully!")
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (h *AdminHandler) GetMatch(c *fiber.Ctx) error {
	id, err := matchID(c)
	if err != nil {
		return err
	}

	match, err := h.matches.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"match": match, "leagues": h.leagues})
}

func (h *AdminHandler) UpdateMatch(c *fiber.Ctx) error {
	id, err := matchID(c)
	if err != nil {
		return err
	}
	form, err := parseMatchInput(c)
	if err != nil {
		return err
	}
	if err := form.validate(h.validator, true); err != nil {
		return err
	}

	ctx := c.UserContext()
	if err := storeLogos(ctx, form.logos); err != nil {
		return err
	}
	match, err := h.matches.Update(ctx, id, form.input)
	if err != nil {
		removeLogos(ctx, form.logos)
		return err
	}

	middleware.Ctx(c).AddNotice(middleware.NoticeSuccess, "Match updated successfully!")
	return c.JSON(match)
}

func (h *AdminHandler) RecordResult(c *fiber.Ctx) error {
	id, err := matchID(c)
	if err != nil {
		return err
	}

	var in resultInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid result payload")
	}

	match, err := h.matches.RecordResult(c.UserContext(), id, in.ResultScore, in.BetStatus)
	if err != nil {
		return err
	}

	middleware.Ctx(c).AddNotice(middleware.NoticeSuccess, "Match result updated!")
	return c.JSON(match)
}

func (h *AdminHandler) MarkLive(c *fiber.Ctx) error {
	id, err := matchID(c)
	if err != nil {
		return err
	}

	match, err := h.matches.MarkLive(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(match)
}

func (h *AdminHandler) DeleteMatch(c *fiber.Ctx) error {
	id, err := matchID(c)
	if err != nil {
		return err
	}

	if err := h.matches.Delete(c.UserContext(), id); err != nil {
		return err
	}

	middleware.Ctx(c).AddNotice(middleware.NoticeSuccess, "Match deleted successfully!")
	return c.JSON(fiber.Map{"deleted": true, "id": id})
}

// BulkImport creates every entry of the payload and reports per-entry failures.
func (h *AdminHandler) BulkImport(c *fiber.Ctx) error {
	body, contentType := bulkImportPayload(c)
	entries, err := services.DecodeBulkImport(body, contentType)
	if err != nil {
		return err
	}

	report, err := h.matches.BulkImport(c.UserContext(), entries)
	if err != nil {
		return err
	}

	rc := middleware.Ctx(c)
	if report.Imported > 0 {
		rc.AddNotice(middleware.NoticeSuccess, fmt.Sprintf("Successfully imported %d matches", report.Imported))
	}
	if report.Failed > 0 {
		rc.AddNotice(middleware.NoticeWarning, fmt.Sprintf("%d matches failed to import", report.Failed))
	}
	return c.JSON(report)
}
