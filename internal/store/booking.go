// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tourfolio/internal/models"
)

const bookingColumns = `id, reference, first_name, last_name, email, phone, country,
	language, tour_type, group_size, selected_date, time_slot, special_requests,
	status, admin_notes, created_at, updated_at`

// BookingFilter narrows a booking listing. Status "" or "all" means any.
type BookingFilter struct {
	Status string
	Page
}

// BookingStore handles all booking-related database operations.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore creates a new BookingStore with the given database connection.
func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.Country,
		&b.Language, &b.TourType, &b.GroupSize, &b.SelectedDate, &b.TimeSlot,
		&b.SpecialRequests, &b.Status, &b.AdminNotes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create persists a booking. Status defaults to pending.
func (s *BookingStore) Create(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	return insertBooking(ctx, s.db, b)
}

// CreateInSlot persists a booking unless its tour, date and time slot
// already hold capacity non-cancelled bookings, in which case ok is false.
// Concurrent calls for the same slot are serialised by a transaction-scoped
// advisory lock, so the count and the insert see the same state.
func (s *BookingStore) CreateInSlot(ctx context.Context, b *models.Booking, capacity int) (created *models.Booking, ok bool, err error) {
	date := b.SelectedDate.Format(time.DateOnly)
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`,
			b.TourType+"|"+date+"|"+b.TimeSlot,
		); err != nil {
			return fmt.Errorf("lock booking slot: %w", err)
		}

		n, err := countForSlot(ctx, tx, b.TourType, date, b.TimeSlot)
		if err != nil {
			return err
		}
		if n >= capacity {
			return nil
		}

		created, err = insertBooking(ctx, tx, b)
		ok = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return created, ok, nil
}

func insertBooking(ctx context.Context, q queryer, b *models.Booking) (*models.Booking, error) {
	status := b.Status
	if status == "" {
		status = models.BookingPending
	}

	created, err := scanBooking(q.QueryRowContext(ctx, `
		INSERT INTO bookings (reference, first_name, last_name, email, phone, country,
		                      language, tour_type, group_size, selected_date, time_slot,
		                      special_requests, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+bookingColumns,
		b.Reference, b.FirstName, b.LastName, b.Email, b.Phone, b.Country,
		b.Language, b.TourType, b.GroupSize, b.SelectedDate, b.TimeSlot,
		b.SpecialRequests, status,
	))
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return created, nil
}

// FindByID retrieves a booking by its UUID.
func (s *BookingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by id: %w", err)
	}
	return b, nil
}

// FindByReference retrieves a booking by its BK reference.
func (s *BookingStore) FindByReference(ctx context.Context, ref string) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by reference: %w", err)
	}
	return b, nil
}

// List returns one page of bookings, newest first, and the matching total.
func (s *BookingStore) List(ctx context.Context, f BookingFilter) ([]models.Booking, int, error) {
	status := f.Status
	if status == "all" {
		status = ""
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	limit, offset := f.limitOffset()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, total, rows.Err()
}

// UpdateStatus sets the status and admin note of a booking and returns the
// updated row.
func (s *BookingStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus, note string) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, `
		UPDATE bookings SET status = $1, admin_notes = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+bookingColumns,
		status, note, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return b, nil
}

// countForSlot returns how many non-cancelled bookings hold the given tour,
// date and time slot.
func countForSlot(ctx context.Context, q queryer, tourType, date, timeSlot string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE tour_type = $1 AND selected_date = $2 AND time_slot = $3
		  AND status <> 'cancelled'
	`, tourType, date, timeSlot).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings for slot: %w", err)
	}
	return n, nil
}
