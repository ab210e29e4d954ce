// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mailer sends the transactional emails that follow bookings and
// contact requests. Messages are rendered from embedded HTML templates and
// handed to a Transport: SMTP in production, the log in development.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"tourfolio/internal/booking"
	"tourfolio/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notifier is the set of emails the application sends.
type Notifier interface {
	BookingConfirmation(ctx context.Context, b *models.Booking) error
	BookingOperatorAlert(ctx context.Context, b *models.Booking) error
	BookingStatusUpdate(ctx context.Context, b *models.Booking) error
	ContactConfirmation(ctx context.Context, c *models.Contact) error
	ContactOperatorAlert(ctx context.Context, c *models.Contact) error
}

// Message is a rendered email ready for a Transport.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Transport delivers rendered messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// NotificationError reports a failed email. Callers treat it as a warning:
// the record that triggered the email is already stored.
type NotificationError struct {
	Kind string
	To   string
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("send %s email to %s: %v", e.Kind, e.To, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Mailer implements Notifier on top of a Transport.
type Mailer struct {
	transport Transport
	catalog   *booking.Catalog
	site      models.SiteSettings
	operator  string
	templates map[string]*template.Template
}

// templateNames lists the body templates rendered inside layout.html.
var templateNames = []string{
	"booking_confirmation",
	"booking_operator",
	"booking_status",
	"contact_confirmation",
	"contact_operator",
}

// New parses the embedded templates and returns a Mailer that sends
// operator alerts to operatorEmail.
func New(transport Transport, catalog *booking.Catalog, site models.SiteSettings, operatorEmail string) (*Mailer, error) {
	m := &Mailer{
		transport: transport,
		catalog:   catalog,
		site:      site,
		operator:  operatorEmail,
		templates: make(map[string]*template.Template, len(templateNames)),
	}
	for _, name := range templateNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse email template %s: %w", name, err)
		}
		m.templates[name] = tmpl
	}
	return m, nil
}

// emailData is the value every template is executed with.
type emailData struct {
	Subject string
	Site    models.SiteSettings
	Booking *models.Booking
	Contact *models.Contact
	Tour    booking.Tour
	Date    string
}

func (m *Mailer) bookingData(subject string, b *models.Booking) emailData {
	tour, ok := m.catalog.Tour(b.TourType)
	if !ok {
		tour = booking.Tour{ID: b.TourType, Name: b.TourType}
	}
	return emailData{
		Subject: subject,
		Site:    m.site,
		Booking: b,
		Tour:    tour,
		Date:    b.SelectedDate.Format("Monday, January 2, 2006"),
	}
}

func (m *Mailer) send(ctx context.Context, kind, name string, msg Message, data emailData) error {
	var buf bytes.Buffer
	if err := m.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return &NotificationError{Kind: kind, To: msg.To, Err: fmt.Errorf("render: %w", err)}
	}
	msg.Subject = data.Subject
	msg.HTML = buf.String()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := m.transport.Send(ctx, msg); err != nil {
		return &NotificationError{Kind: kind, To: msg.To, Err: err}
	}
	return nil
}

// BookingConfirmation emails the traveller a summary of their request.
func (m *Mailer) BookingConfirmation(ctx context.Context, b *models.Booking) error {
	data := m.bookingData("Booking Confirmation - "+b.Reference, b)
	return m.send(ctx, "booking confirmation", "booking_confirmation",
		Message{To: b.Email, ReplyTo: m.operator}, data)
}

// BookingOperatorAlert tells the operator about a new booking.
func (m *Mailer) BookingOperatorAlert(ctx context.Context, b *models.Booking) error {
	data := m.bookingData("", b)
	data.Subject = fmt.Sprintf("New Booking: %s - %s", b.FullName(), data.Tour.Name)
	return m.send(ctx, "booking alert", "booking_operator",
		Message{To: m.operator, ReplyTo: b.Email}, data)
}

// BookingStatusUpdate tells the traveller their booking changed status.
func (m *Mailer) BookingStatusUpdate(ctx context.Context, b *models.Booking) error {
	data := m.bookingData(fmt.Sprintf("Booking %s: %s", b.Reference, b.Status), b)
	return m.send(ctx, "booking status", "booking_status",
		Message{To: b.Email, ReplyTo: m.operator}, data)
}

// ContactConfirmation acknowledges a contact form submission.
func (m *Mailer) ContactConfirmation(ctx context.Context, c *models.Contact) error {
	data := emailData{Subject: "We received your message", Site: m.site, Contact: c}
	return m.send(ctx, "contact confirmation", "contact_confirmation",
		Message{To: c.Email, ReplyTo: m.operator}, data)
}

// ContactOperatorAlert forwards a contact form submission to the operator.
func (m *Mailer) ContactOperatorAlert(ctx context.Context, c *models.Contact) error {
	data := emailData{Subject: "New Contact: " + c.Name + " - " + c.Service, Site: m.site, Contact: c}
	return m.send(ctx, "contact alert", "contact_operator",
		Message{To: m.operator, ReplyTo: c.Email}, data)
}
