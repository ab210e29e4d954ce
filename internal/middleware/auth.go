// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"tourfolio/internal/auth"
	"tourfolio/internal/models"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// SessionKey is the context key for the verified admin session.
const SessionKey contextKey = "session"

// LoginPath is the admin page that stays reachable without a token.
const LoginPath = "/admin/login"

// TokenVerifier turns a raw admin token into a session.
type TokenVerifier interface {
	Verify(raw string) (*auth.Session, error)
}

// RequireAdmin gates admin pages and admin API routes behind a valid admin
// token cookie. API callers get 401 JSON; page requests are redirected to
// the login page. The login page itself always passes through.
func RequireAdmin(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == LoginPath || r.URL.Path == LoginPath+"/" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := tokens.Verify(auth.TokenFromRequest(r))
			if err == nil && sess.Role != models.RoleAdmin {
				err = auth.ErrInvalidToken
			}
			if err != nil {
				slog.Debug("admin gate rejected request", "path", r.URL.Path, "error", err)
				if isAPIPath(r.URL.Path) {
					writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// SessionFromCtx returns the admin session set by RequireAdmin, or nil for
// requests that did not pass the gate.
func SessionFromCtx(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(SessionKey).(*auth.Session)
	return sess
}

// WithSession stores sess in ctx the way RequireAdmin does.
func WithSession(ctx context.Context, sess *auth.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func isAdminPage(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}

// writeJSONError writes the {"success": false, "error": msg} body shared
// with the handlers.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
