// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements the admin gate: signed session tokens carried in
// an HTTP-only cookie, the operator credential check and optional TOTP
// two-factor authentication with single-use backup codes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers missing, malformed, tampered and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// DefaultTokenTTL is how long an issued admin token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the signed token payload.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 admin tokens. Verification is stateless:
// a token is valid exactly when its signature checks out and it has not
// expired.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer. A zero ttl selects DefaultTokenTTL and
// a nil clock selects time.Now.
func NewTokens(secret string, ttl time.Duration, now func() time.Time) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL returns the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for username with the given role.
func (t *Tokens) Issue(username, role string) (string, *Session, error) {
	issuedAt := t.now()
	expires := issuedAt.Add(t.ttl)

	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, &Session{
		Username:  username,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks the signature and expiry of raw and returns the session it
// describes.
func (t *Tokens) Verify(raw string) (*Session, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: no username", ErrInvalidToken)
	}

	return &Session{
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
