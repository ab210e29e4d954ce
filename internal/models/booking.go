// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the admin-driven lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Known reports whether s is one of the documented statuses. The status
// endpoint stores unknown values as-is; this is only used for logging.
func (s BookingStatus) Known() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Booking is a submitted tour request.
type Booking struct {
	ID              uuid.UUID     `json:"id"`
	Reference       string        `json:"reference"`
	FirstName       string        `json:"firstName"`
	LastName        string        `json:"lastName"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	Country         string        `json:"country,omitempty"`
	Language        string        `json:"language,omitempty"`
	TourType        string        `json:"tourType"`
	GroupSize       int           `json:"groupSize"`
	SelectedDate    time.Time     `json:"selectedDate"`
	TimeSlot        string        `json:"timeSlot"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	Status          BookingStatus `json:"status"`
	AdminNotes      string        `json:"adminNotes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// FullName joins the first and last name.
func (b *Booking) FullName() string {
	return b.FirstName + " " + b.LastName
}
