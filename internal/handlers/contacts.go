// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tourfolio/internal/booking"
	"tourfolio/internal/models"
	"tourfolio/internal/store"
)

// ContactStore is the persistence behind the contact endpoints.
type ContactStore interface {
	Create(ctx context.Context, c *models.Contact) (*models.Contact, error)
	List(ctx context.Context, f store.ContactFilter) ([]models.Contact, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) (*models.Contact, error)
}

// ContactNotifier sends the emails that follow a contact submission.
type ContactNotifier interface {
	ContactConfirmation(ctx context.Context, c *models.Contact) error
	ContactOperatorAlert(ctx context.Context, c *models.Contact) error
}

// contactRequest is the contact form payload.
type contactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,max=255,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Service string `json:"service" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Contacts groups the contact form and contact admin handlers.
type Contacts struct {
	store    ContactStore
	notifier ContactNotifier
	validate *validator.Validate
}

// NewContacts creates the contact handler group.
func NewContacts(contactStore ContactStore, notifier ContactNotifier) *Contacts {
	v := validator.New()
	v.RegisterTagNameFunc(booking.JSONFieldName)
	return &Contacts{store: contactStore, notifier: notifier, validate: v}
}

// Create stores a contact enquiry and sends the acknowledgement and the
// operator alert. Email failures are reported but keep the enquiry.
func (h *Contacts) Create(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Service = strings.TrimSpace(req.Service)
	req.Message = strings.TrimSpace(req.Message)

	if err := h.check(req); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := h.store.Create(r.Context(), &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Service: req.Service,
		Message: req.Message,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("contact received", "id", created.ID, "service", created.Service)

	body := map[string]any{
		"success": true,
		"contact": created,
		"message": "Contact form submitted successfully",
	}
	confirmErr := h.notifier.ContactConfirmation(r.Context(), created)
	alertErr := h.notifier.ContactOperatorAlert(r.Context(), created)
	if err := errors.Join(confirmErr, alertErr); err != nil {
		slog.Warn("contact saved but notification failed", "id", created.ID, "error", err)
		body["emailError"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// check reports missing required fields first, then malformed ones.
func (h *Contacts) check(req contactRequest) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing []string
	fields := booking.FieldErrors{}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "email":
			fields[fe.Field()] = "Please enter a valid email address"
		default:
			fields[fe.Field()] = "Value is too long"
		}
	}
	if len(missing) > 0 {
		return &booking.ValidationError{
			Message:       "Missing required fields: " + strings.Join(missing, ", "),
			MissingFields: missing,
		}
	}
	return &booking.ValidationError{Message: "Invalid contact details", Fields: fields}
}

// List returns one page of enquiries, optionally filtered by ?status=.
func (h *Contacts) List(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r, 20)
	contacts, total, err := h.store.List(r.Context(), store.ContactFilter{
		Status: r.URL.Query().Get("status"),
		Page:   page,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contacts": contacts,
		"meta":     newPageMeta(page, total),
	})
}

// UpdateStatus moves an enquiry to new, responded or closed.
func (h *Contacts) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	status := models.ContactStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "Status must be one of new, responded, closed")
		return
	}

	updated, err := h.store.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contact": updated})
}
