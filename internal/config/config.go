// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. An optional .env file in the working directory is read first so
// local development does not need exported variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tourfolio/internal/models"
)

// Defaults that production deployments must override.
const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "change-this-secret"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Admin auth gate
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminEmail        string
	AdminPasswordHash string // bcrypt; empty in development seeds the default password
	TOTPIssuer        string

	// Outbound mail. SMTPHost empty means notifications are only logged.
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	MailFrom      string
	OperatorEmail string

	// S3-compatible storage for featured images (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Bookings. Zero capacity keeps slots unlimited.
	BookingSlotCapacity int

	// HTTP edge
	CORSOrigins          []string
	RateLimit            int
	RateLimitWindow      time.Duration
	LoginRateLimit       int
	LoginRateLimitWindow time.Duration
	// TrustedProxies lists the addresses or CIDR blocks of reverse proxies
	// whose X-Forwarded-For header identifies the client. Empty trusts none.
	TrustedProxies []string

	Site models.SiteSettings
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "tourfolio"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "tourfolio"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret:         envOrDefault("JWT_SECRET", defaultJWTSecret),
		TokenTTL:          envDuration("TOKEN_TTL", 24*time.Hour),
		AdminUsername:     envOrDefault("ADMIN_USERNAME", "admin"),
		AdminEmail:        envOrDefault("ADMIN_EMAIL", "admin@eyobsalemot.com"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		TOTPIssuer:        envOrDefault("TOTP_ISSUER", "Eyob Salemot Portfolio"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASS"),
		MailFrom:      envOrDefault("MAIL_FROM", "bookings@eyobsalemot.com"),
		OperatorEmail: envOrDefault("OPERATOR_EMAIL", "eyob@example.com"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "tourfolio-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		BookingSlotCapacity: envInt("BOOKING_SLOT_CAPACITY", 0),

		CORSOrigins:          parseCSV(os.Getenv("CORS_ORIGINS")),
		RateLimit:            envInt("RATE_LIMIT", 10),
		RateLimitWindow:      envDuration("RATE_LIMIT_WINDOW", time.Minute),
		LoginRateLimit:       envInt("LOGIN_RATE_LIMIT", 5),
		LoginRateLimitWindow: envDuration("LOGIN_RATE_LIMIT_WINDOW", 15*time.Minute),
		TrustedProxies:       parseCSV(os.Getenv("TRUSTED_PROXIES")),
	}

	cfg.Site = models.DefaultSiteSettings()
	cfg.Site.SiteName = envOrDefault("SITE_NAME", cfg.Site.SiteName)
	cfg.Site.SiteDescription = envOrDefault("SITE_DESCRIPTION", cfg.Site.SiteDescription)
	cfg.Site.ContactEmail = envOrDefault("SITE_CONTACT_EMAIL", cfg.Site.ContactEmail)
	cfg.Site.ContactPhone = envOrDefault("SITE_CONTACT_PHONE", cfg.Site.ContactPhone)
	cfg.Site.Address = envOrDefault("SITE_ADDRESS", cfg.Site.Address)
	cfg.Site.SocialLinks.Facebook = os.Getenv("SOCIAL_FACEBOOK")
	cfg.Site.SocialLinks.Twitter = os.Getenv("SOCIAL_TWITTER")
	cfg.Site.SocialLinks.LinkedIn = os.Getenv("SOCIAL_LINKEDIN")
	cfg.Site.SocialLinks.Instagram = os.Getenv("SOCIAL_INSTAGRAM")
	cfg.Site.SocialLinks.YouTube = os.Getenv("SOCIAL_YOUTUBE")

	if cfg.BookingSlotCapacity < 0 {
		return nil, fmt.Errorf("BOOKING_SLOT_CAPACITY must not be negative")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SMTPConfigured reports whether outbound mail should go through SMTP.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

// S3Configured reports whether featured image uploads are available.
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envDuration accepts Go duration syntax ("90s", "24h").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			items = append(items, v)
		}
	}
	return items
}
