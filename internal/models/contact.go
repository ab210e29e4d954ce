// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactStatus tracks the operator's handling of a contact request.
type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactResponded ContactStatus = "responded"
	ContactClosed    ContactStatus = "closed"
)

// Valid reports whether s is a recognised contact status.
func (s ContactStatus) Valid() bool {
	return s == ContactNew || s == ContactResponded || s == ContactClosed
}

// Contact is an inbound enquiry from the contact form.
type Contact struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Service   string        `json:"service"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
