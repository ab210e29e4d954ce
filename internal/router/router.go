// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains. Routes are
// split into the public API, the gated admin API and the static admin shell.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"tourfolio/internal/handlers"
	"tourfolio/internal/middleware"
	"tourfolio/internal/models"
	"tourfolio/web"
)

// Deps carries everything the routes are built from.
type Deps struct {
	Bookings *handlers.Bookings
	Contacts *handlers.Contacts
	Blog     *handlers.Blog
	Media    *handlers.Media
	Auth     *handlers.Auth

	Site   models.SiteSettings
	Health map[string]handlers.Pinger

	// Tokens verifies the admin cookie for every gated route.
	Tokens middleware.TokenVerifier
	// SubmitLimiter throttles the public booking and contact forms and
	// LoginLimiter the login endpoint. Nil disables either.
	SubmitLimiter *middleware.RateLimiter
	LoginLimiter  *middleware.RateLimiter
	// CORSOrigins lists the browser origins allowed to call the API with
	// credentials. Empty means same-origin only.
	CORSOrigins []string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", handlers.Health(d.Health))
	r.Handle("/metrics", middleware.MetricsHandler())

	throttle := func(rl *middleware.RateLimiter, h http.HandlerFunc) http.Handler {
		if rl == nil {
			return h
		}
		return rl.Middleware(h)
	}

	r.Route("/api", func(r chi.Router) {
		// Public site API.
		r.Get("/tours", d.Bookings.Tours)
		r.Method(http.MethodPost, "/bookings", throttle(d.SubmitLimiter, d.Bookings.Create))
		r.Post("/bookings/validate/{step}", d.Bookings.ValidateStep)
		r.Method(http.MethodPost, "/contacts", throttle(d.SubmitLimiter, d.Contacts.Create))
		r.Get("/blog", d.Blog.PublicList)
		r.Get("/blog/{slug}", d.Blog.PublicPost)
		r.Get("/site-settings", handlers.SiteSettings(d.Site))

		// Login and logout need no token.
		r.Method(http.MethodPost, "/auth/login", throttle(d.LoginLimiter, d.Auth.Login))
		r.Post("/auth/logout", d.Auth.Logout)

		// Everything below requires a valid admin token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Tokens))

			r.Get("/auth/me", d.Auth.Me)
			r.Route("/auth/2fa", func(r chi.Router) {
				r.Post("/setup", d.Auth.SetupTwoFactor)
				r.Post("/verify", d.Auth.VerifyTwoFactor)
				r.Post("/disable", d.Auth.DisableTwoFactor)
				r.Post("/backup-codes", d.Auth.BackupCodes)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Route("/blog", func(r chi.Router) {
					r.Get("/", d.Blog.List)
					r.Post("/", d.Blog.Create)
					r.Get("/{id}", d.Blog.Get)
					r.Put("/{id}", d.Blog.Update)
					r.Delete("/{id}", d.Blog.Delete)
					r.Get("/{id}/versions", d.Blog.Versions)
					r.Post("/{id}/restore", d.Blog.Restore)
				})

				r.Post("/media", d.Media.Upload)

				r.Get("/bookings", d.Bookings.List)
				r.Patch("/bookings/{id}", d.Bookings.UpdateStatus)

				r.Get("/contacts", d.Contacts.List)
				r.Patch("/contacts/{id}", d.Contacts.UpdateStatus)
			})
		})
	})

	// Admin shell. The gate lets /admin/login through and redirects every
	// other page to it when the token is missing.
	index := mustReadPage("admin/index.html")
	login := mustReadPage("admin/login.html")
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(d.Tokens))
		r.Get("/login", servePage(login))
		r.Get("/", servePage(index))
		r.Get("/*", servePage(index))
	})

	return r
}

// mustReadPage loads an embedded admin page. The pages are compiled in, so
// a missing one is a build defect.
func mustReadPage(name string) []byte {
	b, err := fs.ReadFile(web.AdminFS, name)
	if err != nil {
		panic("router: " + err.Error())
	}
	return b
}

func servePage(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	}
}
