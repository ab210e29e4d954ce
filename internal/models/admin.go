// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the only role the auth gate issues.
const RoleAdmin = "admin"

// AdminUser is the singleton site operator. Exactly one row, matched by the
// configured username, is used for login and two-factor state.
type AdminUser struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"` // Never serialize the hash
	TwoFactorSecret  *string    `json:"-"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	BackupCodeHashes []string   `json:"-"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// HasPendingTwoFactor reports whether a secret was issued but not yet confirmed.
func (u *AdminUser) HasPendingTwoFactor() bool {
	return u.TwoFactorSecret != nil && !u.TwoFactorEnabled
}
