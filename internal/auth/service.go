// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tourfolio/internal/models"
	"tourfolio/internal/store"
)

// Errors returned by Service. ErrInvalidCredentials is deliberately the
// same for every login failure.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrTwoFactorEnabled    = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")
	ErrTwoFactorNotPending = errors.New("two-factor setup has not been started")
)

// dummyHash is compared against when the operator row is missing so a
// failed lookup costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-the-password"), bcrypt.DefaultCost)

// AdminRepository is the persistence the gate needs for the operator row.
type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string) error
	EnableTwoFactor(ctx context.Context, id uuid.UUID, backupHashes []string) error
	DisableTwoFactor(ctx context.Context, id uuid.UUID) error
	ReplaceBackupCodes(ctx context.Context, id uuid.UUID, backupHashes []string) error
	ConsumeBackupCode(ctx context.Context, id uuid.UUID, hash string) (bool, error)
}

// Service authenticates the singleton operator and manages their
// two-factor state. The username comes from configuration; credentials
// and 2FA state live in the matching admin_users row.
type Service struct {
	repo     AdminRepository
	tokens   *Tokens
	username string
	issuer   string
	now      func() time.Time
}

// NewService wires the gate for the configured operator username.
func NewService(repo AdminRepository, tokens *Tokens, username, issuer string) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		username: username,
		issuer:   issuer,
		now:      tokens.now,
	}
}

// Tokens returns the token issuer used by the service.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Login checks the credentials and, when two-factor is enabled, the TOTP or
// backup code. On success it returns a signed token and its session.
func (s *Service) Login(ctx context.Context, username, password, code string) (string, *Session, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	admin, err := s.repo.FindByUsername(ctx, s.username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", nil, fmt.Errorf("load operator: %w", err)
	}

	hash := dummyHash
	if admin != nil {
		hash = []byte(admin.PasswordHash)
	}
	passwordOK := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if !usernameOK || !passwordOK || admin == nil {
		return "", nil, ErrInvalidCredentials
	}

	if admin.TwoFactorEnabled {
		ok, err := s.checkSecondFactor(ctx, admin, code)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, ErrInvalidCredentials
		}
	}

	if err := s.repo.TouchLastLogin(ctx, admin.ID); err != nil {
		slog.Warn("failed to record last login", "username", admin.Username, "error", err)
	}

	return s.tokens.Issue(admin.Username, models.RoleAdmin)
}

// checkSecondFactor accepts a current TOTP code or an unused backup code.
func (s *Service) checkSecondFactor(ctx context.Context, admin *models.AdminUser, code string) (bool, error) {
	if code == "" || admin.TwoFactorSecret == nil {
		return false, nil
	}
	if ValidateTOTP(code, *admin.TwoFactorSecret, s.now()) {
		return true, nil
	}
	ok, err := s.repo.ConsumeBackupCode(ctx, admin.ID, HashBackupCode(code))
	if err != nil {
		return false, fmt.Errorf("consume backup code: %w", err)
	}
	if ok {
		slog.Info("backup code used for login", "username", admin.Username)
	}
	return ok, nil
}

// TwoFactorEnabled reports the operator's current 2FA state.
func (s *Service) TwoFactorEnabled(ctx context.Context) (bool, error) {
	admin, err := s.operator(ctx)
	if err != nil {
		return false, err
	}
	return admin.TwoFactorEnabled, nil
}

// SetupTwoFactor generates and stores a new secret without enabling it.
// Calling it again before verification replaces the pending secret.
func (s *Service) SetupTwoFactor(ctx context.Context) (*Enrollment, error) {
	admin, err := s.operator(ctx)
	if err != nil {
		return nil, err
	}
	if admin.TwoFactorEnabled {
		return nil, ErrTwoFactorEnabled
	}

	enrollment, err := NewEnrollment(s.issuer, admin.Email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetTwoFactorSecret(ctx, admin.ID, enrollment.Secret); err != nil {
		return nil, fmt.Errorf("store two-factor secret: %w", err)
	}
	return enrollment, nil
}

// VerifyTwoFactor confirms the pending secret with a code from the
// authenticator app, enables 2FA and returns fresh backup codes.
func (s *Service) VerifyTwoFactor(ctx context.Context, code string) ([]string, error) {
	admin, err := s.operator(ctx)
	if err != nil {
		return nil, err
	}
	if admin.TwoFactorEnabled {
		return nil, ErrTwoFactorEnabled
	}
	if admin.TwoFactorSecret == nil {
		return nil, ErrTwoFactorNotPending
	}
	if !ValidateTOTP(code, *admin.TwoFactorSecret, s.now()) {
		return nil, ErrInvalidCode
	}

	codes, hashes, err := GenerateBackupCodes()
	if err != nil {
		return nil, err
	}
	if err := s.repo.EnableTwoFactor(ctx, admin.ID, hashes); err != nil {
		return nil, fmt.Errorf("enable two-factor: %w", err)
	}
	slog.Info("two-factor authentication enabled", "username", admin.Username)
	return codes, nil
}

// DisableTwoFactor clears the secret, the flag and the backup codes.
func (s *Service) DisableTwoFactor(ctx context.Context) error {
	admin, err := s.operator(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DisableTwoFactor(ctx, admin.ID); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	slog.Info("two-factor authentication disabled", "username", admin.Username)
	return nil
}

// RegenerateBackupCodes replaces every backup code with a new set.
func (s *Service) RegenerateBackupCodes(ctx context.Context) ([]string, error) {
	admin, err := s.operator(ctx)
	if err != nil {
		return nil, err
	}
	if !admin.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	codes, hashes, err := GenerateBackupCodes()
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceBackupCodes(ctx, admin.ID, hashes); err != nil {
		return nil, fmt.Errorf("replace backup codes: %w", err)
	}
	return codes, nil
}

func (s *Service) operator(ctx context.Context) (*models.AdminUser, error) {
	admin, err := s.repo.FindByUsername(ctx, s.username)
	if err != nil {
		return nil, fmt.Errorf("load operator: %w", err)
	}
	return admin, nil
}
