// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tourfolio/internal/booking"
	"tourfolio/internal/models"
	"tourfolio/internal/store"
)

// BookingService is the booking flow the public endpoints drive.
type BookingService interface {
	Submit(ctx context.Context, f booking.Form) (*booking.Result, error)
	ValidateStep(step booking.Step, f booking.Form) booking.FieldErrors
	Catalog() *booking.Catalog
}

// BookingAdminStore is the booking persistence the admin endpoints use.
type BookingAdminStore interface {
	List(ctx context.Context, f store.BookingFilter) ([]models.Booking, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus, note string) (*models.Booking, error)
}

// StatusNotifier tells a traveller their booking changed.
type StatusNotifier interface {
	BookingStatusUpdate(ctx context.Context, b *models.Booking) error
}

// Bookings groups the tour catalog, booking submission and booking admin
// handlers.
type Bookings struct {
	service  BookingService
	store    BookingAdminStore
	notifier StatusNotifier
}

// NewBookings creates the booking handler group.
func NewBookings(service BookingService, bookingStore BookingAdminStore, notifier StatusNotifier) *Bookings {
	return &Bookings{service: service, store: bookingStore, notifier: notifier}
}

// Tours serves the catalog the booking wizard is built from.
func (h *Bookings) Tours(w http.ResponseWriter, r *http.Request) {
	c := h.service.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"tours":     c.Tours,
		"timeSlots": c.TimeSlots,
		"languages": c.Languages,
		"groupSize": c.GroupSize,
	})
}

// Create accepts a completed booking form. The booking is stored before
// the emails go out; an email failure is reported alongside the booking
// reference instead of failing the request.
func (h *Bookings) Create(w http.ResponseWriter, r *http.Request) {
	var form booking.Form
	if err := decodeJSON(w, r, &form); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.service.Submit(r.Context(), form)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := map[string]any{
		"success":   true,
		"bookingId": result.Booking.Reference,
		"message":   "Booking request submitted successfully. Confirmation emails sent.",
	}
	if result.NotifyErr != nil {
		body["message"] = "Booking saved but email sending failed"
		body["emailError"] = result.NotifyErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// ValidateStep runs the wizard predicates for one step server-side.
func (h *Bookings) ValidateStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid step")
		return
	}
	step, err := booking.ParseStep(n)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid step")
		return
	}

	var form booking.Form
	if err := decodeJSON(w, r, &form); err != nil {
		respondError(w, r, err)
		return
	}

	errs := h.service.ValidateStep(step, form)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"valid":   len(errs) == 0,
		"errors":  errs,
	})
}

// List returns one page of bookings, optionally filtered by ?status=.
func (h *Bookings) List(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r, 20)
	bookings, total, err := h.store.List(r.Context(), store.BookingFilter{
		Status: r.URL.Query().Get("status"),
		Page:   page,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"bookings": bookings,
		"meta":     newPageMeta(page, total),
	})
}

type bookingStatusRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UpdateStatus sets a booking's status and admin note, then emails the
// traveller. The email outcome never changes the stored update.
func (h *Bookings) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req bookingStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	status := models.BookingStatus(strings.TrimSpace(req.Status))
	if status == "" {
		writeError(w, http.StatusBadRequest, "Status is required")
		return
	}
	if !status.Known() {
		slog.Warn("storing unrecognised booking status", "id", id, "status", status)
	}

	updated, err := h.store.UpdateStatus(r.Context(), id, status, req.Message)
	if err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("booking status updated", "reference", updated.Reference, "status", status)

	body := map[string]any{"success": true, "booking": updated}
	if err := h.notifier.BookingStatusUpdate(r.Context(), updated); err != nil {
		slog.Warn("booking status email failed", "reference", updated.Reference, "error", err)
		body["emailError"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}
