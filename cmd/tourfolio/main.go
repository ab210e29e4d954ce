// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the tourfolio server. It loads
// configuration, connects to services, sets up routing, and starts the
// HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourfolio/internal/auth"
	"tourfolio/internal/booking"
	"tourfolio/internal/cache"
	"tourfolio/internal/config"
	"tourfolio/internal/database"
	"tourfolio/internal/handlers"
	"tourfolio/internal/mailer"
	"tourfolio/internal/middleware"
	"tourfolio/internal/router"
	"tourfolio/internal/storage"
	"tourfolio/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.IsDev() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	// PostgreSQL: connect, migrate, seed the operator and starter posts.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.Seed(ctx, db, database.SeedAdmin{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
	}); err != nil {
		return err
	}

	health := map[string]handlers.Pinger{"database": db}

	// Valkey is optional: without it the public blog is served uncached.
	var blogCache handlers.ResponseCache
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, 0)
	if err != nil {
		slog.Warn("valkey unavailable, blog responses will not be cached", "error", err)
	} else {
		defer valkeyClient.Close()
		blogCache = cache.NewBlogCache(valkeyClient, cache.DefaultBlogTTL)
		health["valkey"] = handlers.PingFunc(func(ctx context.Context) error {
			return valkeyClient.Ping(ctx).Err()
		})
	}

	// Data stores.
	bookingStore := store.NewBookingStore(db)
	contactStore := store.NewContactStore(db)
	blogStore := store.NewBlogStore(db)
	adminStore := store.NewAdminStore(db)

	catalog, err := booking.LoadCatalog()
	if err != nil {
		return err
	}

	// Outgoing mail goes to the log until SMTP is configured.
	var transport mailer.Transport = mailer.LogTransport{}
	if cfg.SMTPConfigured() {
		transport = mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		slog.Warn("smtp not configured, emails will be logged instead of sent")
	}
	notifier, err := mailer.New(transport, catalog, cfg.Site, cfg.OperatorEmail)
	if err != nil {
		return err
	}

	// S3-compatible storage is optional; uploads answer 503 without it.
	var (
		uploader handlers.ImageUploader
		images   handlers.ImageStore
	)
	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	switch {
	case err != nil:
		return err
	case storageClient != nil:
		uploader, images = storageClient, storageClient
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	bookingService := booking.NewService(catalog, bookingStore, notifier,
		booking.WithSlotCapacity(cfg.BookingSlotCapacity))

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, nil)
	authService := auth.NewService(adminStore, tokens, cfg.AdminUsername, cfg.TOTPIssuer)

	blog := handlers.NewBlog(blogStore, blogCache, cfg.Site.SiteName)
	if images != nil {
		blog.WithImageCleanup(images)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	submitLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow).TrustProxies(proxies)
	defer submitLimiter.Stop()
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateLimitWindow).TrustProxies(proxies)
	defer loginLimiter.Stop()

	r := router.New(router.Deps{
		Bookings:      handlers.NewBookings(bookingService, bookingStore, notifier),
		Contacts:      handlers.NewContacts(contactStore, notifier),
		Blog:          blog,
		Media:         handlers.NewMedia(uploader),
		Auth:          handlers.NewAuth(authService, tokens.TTL(), !cfg.IsDev()),
		Site:          cfg.Site,
		Health:        health,
		Tokens:        tokens,
		SubmitLimiter: submitLimiter,
		LoginLimiter:  loginLimiter,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}
