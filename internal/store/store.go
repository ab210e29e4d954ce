// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for blog posts, bookings,
// contacts and the operator account. Each store struct wraps a *sql.DB and
// exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Sentinel errors mapped to HTTP statuses at the handler boundary.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrSlugTaken       = errors.New("slug already in use")
)

// pgUniqueViolation is the SQLSTATE for unique constraint failures.
const pgUniqueViolation = "23505"

// typeMap scans PostgreSQL arrays through database/sql.
var typeMap = pgtype.NewMap()

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn inside a transaction on a single pooled connection. The
// transaction is committed when fn returns nil and rolled back otherwise,
// so the connection goes back to the pool on every path.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure on
// the named constraint. An empty name matches any unique constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Page bounds a list query. Zero values select the first page of defaultPageSize.
type Page struct {
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize returns the 1-based page number and the clamped page size.
func (p Page) Normalize() (page, size int) {
	size = p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page = max(p.Page, 1)
	return page, size
}

// limitOffset converts p into SQL LIMIT and OFFSET values.
func (p Page) limitOffset() (int, int) {
	page, size := p.Normalize()
	return size, (page - 1) * size
}
