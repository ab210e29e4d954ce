// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"tourfolio/internal/models"
)

const adminColumns = `id, username, email, password_hash, two_factor_secret,
	two_factor_enabled, two_factor_backup_codes, last_login, created_at`

// AdminStore handles the singleton operator account.
type AdminStore struct {
	db *sql.DB
}

// NewAdminStore creates a new AdminStore with the given database connection.
func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func scanAdmin(row scanner) (*models.AdminUser, error) {
	var u models.AdminUser
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TwoFactorSecret,
		&u.TwoFactorEnabled, typeMap.SQLScanner(&u.BackupCodeHashes), &u.LastLogin, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername retrieves the operator row by username.
func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	u, err := scanAdmin(s.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return u, nil
}

// TouchLastLogin records a successful login.
func (s *AdminStore) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, "touch last login",
		`UPDATE admin_users SET last_login = NOW() WHERE id = $1`, id)
}

// SetTwoFactorSecret stores a freshly generated secret without enabling it.
func (s *AdminStore) SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string) error {
	return s.exec(ctx, "set two-factor secret", `
		UPDATE admin_users SET two_factor_secret = $1, two_factor_enabled = FALSE
		WHERE id = $2
	`, secret, id)
}

// EnableTwoFactor confirms the pending secret and stores the hashed backup codes.
func (s *AdminStore) EnableTwoFactor(ctx context.Context, id uuid.UUID, backupHashes []string) error {
	return s.exec(ctx, "enable two-factor", `
		UPDATE admin_users SET two_factor_enabled = TRUE, two_factor_backup_codes = $1
		WHERE id = $2 AND two_factor_secret IS NOT NULL
	`, backupHashes, id)
}

// DisableTwoFactor clears the secret, the flag and all backup codes.
func (s *AdminStore) DisableTwoFactor(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, "disable two-factor", `
		UPDATE admin_users
		SET two_factor_secret = NULL, two_factor_enabled = FALSE, two_factor_backup_codes = '{}'
		WHERE id = $1
	`, id)
}

// ReplaceBackupCodes swaps the stored backup code hashes.
func (s *AdminStore) ReplaceBackupCodes(ctx context.Context, id uuid.UUID, backupHashes []string) error {
	return s.exec(ctx, "replace backup codes",
		`UPDATE admin_users SET two_factor_backup_codes = $1 WHERE id = $2`, backupHashes, id)
}

// ConsumeBackupCode removes hash from the stored codes. It reports false
// when the hash was not present, so each code works exactly once.
func (s *AdminStore) ConsumeBackupCode(ctx context.Context, id uuid.UUID, hash string) (bool, error) {
	var consumed bool
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var codes []string
		err := tx.QueryRowContext(ctx,
			`SELECT two_factor_backup_codes FROM admin_users WHERE id = $1 FOR UPDATE`, id,
		).Scan(typeMap.SQLScanner(&codes))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read backup codes: %w", err)
		}

		idx := slices.Index(codes, hash)
		if idx < 0 {
			return nil
		}
		codes = slices.Delete(codes, idx, idx+1)

		if _, err := tx.ExecContext(ctx,
			`UPDATE admin_users SET two_factor_backup_codes = $1 WHERE id = $2`, codes, id); err != nil {
			return fmt.Errorf("store backup codes: %w", err)
		}
		consumed = true
		return nil
	})
	return consumed, err
}

func (s *AdminStore) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
