package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseDriver string
	DatabaseURL    string

	// Admin access
	AdminUsername     string
	AdminPasswordHash string
	APIKey            string
	AllowedOrigins    []string
	SessionTTL        time.Duration

	// Rate limiting
	RateLimitWindow   time.Duration
	RateLimitMax      int
	LoginRateLimitMax int

	// Listings
	ResultsPerPage    int
	AdminPerPage      int
	MaxBulkImport     int
	LiveWindowMinutes int

	// Sitemap
	SiteBaseURL     string
	SitemapInterval time.Duration

	// Cloudflare R2
	CloudflareAccountID string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2BucketName        string
	CDNBaseURL          string

	// Telegram channel
	TelegramBotToken string
	TelegramChatID   int64
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "tips.sqlite"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		APIKey:            getEnv("API_KEY", ""),
		AllowedOrigins:    getEnvList("ALLOWED_ORIGINS", "http://localhost:3000"),
		SessionTTL:        24 * time.Hour,

		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", 100),
		LoginRateLimitMax: getEnvInt("LOGIN_RATE_LIMIT_MAX", 5),

		ResultsPerPage:    getEnvInt("RESULTS_PER_PAGE", 20),
		AdminPerPage:      getEnvInt("ADMIN_PER_PAGE", 20),
		MaxBulkImport:     getEnvInt("MAX_BULK_IMPORT", 50),
		LiveWindowMinutes: getEnvInt("LIVE_WINDOW_MINUTES", 120),

		SiteBaseURL:     strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:3000"), "/"),
		SitemapInterval: getEnvDuration("SITEMAP_INTERVAL", 10*time.Minute),

		CloudflareAccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2AccessKeyID:       getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret:   getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:        getEnv("R2_BUCKET_NAME", ""),
		CDNBaseURL:          getEnv("CDN_BASE_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LiveWindow is the period after kickoff during which an upcoming match counts as live.
func (c *Config) LiveWindow() time.Duration {
	return time.Duration(c.LiveWindowMinutes) * time.Minute
}

// R2Configured reports whether every R2 credential is present.
func (c *Config) R2Configured() bool {
	return c.CloudflareAccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2BucketName != ""
}

// TelegramConfigured reports whether channel notifications are enabled.
func (c *Config) TelegramConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
