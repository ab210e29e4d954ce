// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tourfolio/internal/models"
)

const contactColumns = `id, name, email, phone, service, message, status, created_at, updated_at`

// ContactFilter narrows a contact listing. Status "" or "all" means any.
type ContactFilter struct {
	Status string
	Page
}

// ContactStore handles contact form submissions.
type ContactStore struct {
	db *sql.DB
}

// NewContactStore creates a new ContactStore with the given database connection.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

func scanContact(row scanner) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Service, &c.Message,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create stores a new enquiry with status "new".
func (s *ContactStore) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	created, err := scanContact(s.db.QueryRowContext(ctx, `
		INSERT INTO contacts (name, email, phone, service, message, status)
		VALUES ($1, $2, $3, $4, $5, 'new')
		RETURNING `+contactColumns,
		c.Name, c.Email, c.Phone, c.Service, c.Message,
	))
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

// List returns one page of enquiries, newest first, and the matching total.
func (s *ContactStore) List(ctx context.Context, f ContactFilter) ([]models.Contact, int, error) {
	status := f.Status
	if status == "all" {
		status = ""
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contacts WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	limit, offset := f.limitOffset()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, total, rows.Err()
}

// UpdateStatus moves an enquiry to a new status.
func (s *ContactStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) (*models.Contact, error) {
	c, err := scanContact(s.db.QueryRowContext(ctx, `
		UPDATE contacts SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+contactColumns,
		status, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update contact status: %w", err)
	}
	return c, nil
}
