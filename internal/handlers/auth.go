// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tourfolio/internal/auth"
	"tourfolio/internal/middleware"
)

// AuthService is the operator login and two-factor management the auth
// endpoints expose.
type AuthService interface {
	Login(ctx context.Context, username, password, code string) (string, *auth.Session, error)
	TwoFactorEnabled(ctx context.Context) (bool, error)
	SetupTwoFactor(ctx context.Context) (*auth.Enrollment, error)
	VerifyTwoFactor(ctx context.Context, code string) ([]string, error)
	DisableTwoFactor(ctx context.Context) error
	RegenerateBackupCodes(ctx context.Context) ([]string, error)
}

// Auth groups the login, logout and two-factor handlers.
type Auth struct {
	service      AuthService
	ttl          time.Duration
	secureCookie bool
}

// NewAuth creates the auth handler group. Cookies live for ttl and carry
// the Secure flag when secureCookie is set.
func NewAuth(service AuthService, ttl time.Duration, secureCookie bool) *Auth {
	return &Auth{service: service, ttl: ttl, secureCookie: secureCookie}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Login checks the operator credentials (and second factor when enabled)
// and sets the admin token cookie. Every credential failure gets the same
// 401 so callers cannot tell which part was wrong.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing credentials")
		return
	}

	token, sess, err := h.service.Login(r.Context(), req.Username, req.Password, strings.TrimSpace(req.Code))
	if err != nil {
		slog.Warn("admin login failed", "remote", r.RemoteAddr, "error", err)
		respondError(w, r, err)
		return
	}

	auth.SetCookie(w, token, h.ttl, h.secureCookie)
	slog.Info("admin logged in", "username", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": sess})
}

// Logout clears the admin token cookie.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me describes the current session and the operator's 2FA state.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	enabled, err := h.service.TwoFactorEnabled(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"user":             sess,
		"twoFactorEnabled": enabled,
	})
}

// SetupTwoFactor starts enrollment and returns the secret, its otpauth URI
// and a QR code of the URI as a base64 PNG.
func (h *Auth) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.service.SetupTwoFactor(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"secret":    enrollment.Secret,
		"qrCodeUrl": enrollment.URL,
		"qrCode":    enrollment.QRCode,
	})
}

// VerifyTwoFactor confirms enrollment with a code from the authenticator
// app and returns the one-time backup codes. "token" is accepted as an
// alias of "code".
func (h *Auth) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"code"`
		Token string `json:"token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = strings.TrimSpace(req.Token)
	}
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing verification code")
		return
	}

	codes, err := h.service.VerifyTwoFactor(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "2FA enabled successfully",
		"backupCodes": codes,
	})
}

// DisableTwoFactor turns 2FA off and discards the secret and backup codes.
func (h *Auth) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DisableTwoFactor(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "2FA disabled successfully"})
}

// BackupCodes replaces the backup codes with a fresh set.
func (h *Auth) BackupCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.RegenerateBackupCodes(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "backupCodes": codes})
}
