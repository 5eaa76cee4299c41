package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tips-publish-system/config"
	"tips-publish-system/handlers"
	"tips-publish-system/middleware"
	"tips-publish-system/repository"
	"tips-publish-system/services"
	"tips-publish-system/utils"
	"tips-publish-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sitemapPath = "public/sitemap.xml"

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg)

	if envErr != nil {
		log.Info().Msg("⚠️  No .env file found, reading environment variables directly")
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}

	if cfg.R2Configured() {
		err := utils.InitR2(context.Background(), utils.R2Settings{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		log.Info().Str("bucket", cfg.R2BucketName).Msg("☁️ R2 storage enabled")
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure upload dir")
	}

	leagues, err := services.LoadLeagues()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load leagues")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	store := repository.NewMatchRepository(db)
	validator := services.NewInputValidator()
	lifecycle := services.NewLifecycle(clock, cfg.LiveWindow(), validator)
	adminService := services.NewAdminService(db, clock)

	if err := adminService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPasswordHash); err != nil {
		log.Fatal().Err(err).Msg("failed to provision admin account")
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.TelegramConfigured() {
		tg, err := services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.SiteBaseURL)
		if err != nil {
			log.Error().Err(err).Msg("Telegram notifier disabled")
		} else {
			defer tg.Close()
			notifier = tg
		}
	}

	matchService := services.NewMatchService(store, validator, lifecycle, notifier, cfg.MaxBulkImport)
	queryService := services.NewQueryService(store, lifecycle, cfg.ResultsPerPage, cfg.AdminPerPage)

	app := fiber.New(fiber.Config{
		AppName:      "tips-publish-system",
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: handlers.ErrorHandler(!cfg.IsProduction()),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Requested-With, X-API-Key",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	sessions := session.New(session.Config{
		Expiration:     cfg.SessionTTL,
		KeyLookup:      "cookie:vital_tips_session",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.IsProduction(),
		CookieSameSite: "Lax",
	})
	loginLimiter := limiter.New(limiter.Config{
		Max:        cfg.LoginRateLimitMax,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many login attempts, please try again later.",
			})
		},
	})

	handlers.SetupPublicRoutes(app, handlers.NewPublicHandler(queryService))
	handlers.SetupAdminRoutes(app,
		handlers.NewAdminHandler(matchService, queryService, adminService, validator, leagues),
		middleware.SessionMiddleware(sessions),
		loginLimiter,
		cfg.APIKey,
	)

	app.Use("/uploads", handlers.UploadHeaders)
	app.Static("/uploads", "./"+utils.UploadDir)
	app.Get("/sitemap.xml", func(c *fiber.Ctx) error {
		c.Type("xml")
		return c.SendFile(filepath.Clean(sitemapPath))
	})

	sitemap := workers.NewSitemapWorker(store, cfg.SiteBaseURL, sitemapPath, cfg.SitemapInterval)
	if err := sitemap.Start(); err != nil {
		log.Error().Err(err).Msg("sitemap worker not started")
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("✅ Server running")
	log.Info().Strs("origins", cfg.AllowedOrigins).Msg("✅ CORS configured")

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	if err := sitemap.Stop(); err != nil {
		log.Error().Err(err).Msg("sitemap worker shutdown")
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
