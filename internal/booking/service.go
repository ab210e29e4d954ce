// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tourfolio/internal/models"
)

// ErrSlotFull is returned when a capacity limit is configured and the
// requested tour, date and time slot already hold that many bookings.
var ErrSlotFull = errors.New("selected time slot is fully booked")

// ValidationError describes a rejected booking payload.
type ValidationError struct {
	Message       string
	MissingFields []string
	Fields        FieldErrors
}

func (e *ValidationError) Error() string { return e.Message }

// Repository persists bookings.
type Repository interface {
	Create(ctx context.Context, b *models.Booking) (*models.Booking, error)
	// CreateInSlot stores b only while its tour, date and time slot hold
	// fewer than capacity bookings. ok is false when the slot is full.
	CreateInSlot(ctx context.Context, b *models.Booking, capacity int) (created *models.Booking, ok bool, err error)
}

// Notifier sends the two emails that follow a successful booking.
type Notifier interface {
	BookingConfirmation(ctx context.Context, b *models.Booking) error
	BookingOperatorAlert(ctx context.Context, b *models.Booking) error
}

// Result is an accepted booking. NotifyErr is set when the booking was
// stored but one of the emails could not be sent.
type Result struct {
	Booking   *models.Booking
	NotifyErr error
}

// Service validates, stores and announces bookings submitted to the server.
type Service struct {
	catalog  *Catalog
	repo     Repository
	notifier Notifier
	capacity int
	validate *validator.Validate
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithSlotCapacity caps bookings per tour, date and time slot. Zero keeps
// slots unlimited.
func WithSlotCapacity(n int) Option {
	return func(s *Service) { s.capacity = n }
}

// WithClock overrides the time source used for references.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a booking service.
func NewService(catalog *Catalog, repo Repository, notifier Notifier, opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(JSONFieldName)

	s := &Service{
		catalog:  catalog,
		repo:     repo,
		notifier: notifier,
		validate: v,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the tour catalog the service validates against.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Submit runs the full server-side booking flow. Validation failures return
// *ValidationError. Persistence failures abort. Notification failures do
// not: the stored booking is returned with Result.NotifyErr set.
func (s *Service) Submit(ctx context.Context, f Form) (*Result, error) {
	f = normalise(f)

	missing, tooLong := s.checkFields(f)
	if len(missing) > 0 {
		return nil, &ValidationError{
			Message:       "Missing required fields: " + strings.Join(missing, ", "),
			MissingFields: missing,
		}
	}
	if len(tooLong) > 0 {
		return nil, &ValidationError{Message: "Invalid booking details", Fields: tooLong}
	}

	if errs := s.catalog.ValidateAll(f); len(errs) > 0 {
		return nil, &ValidationError{Message: "Invalid booking details", Fields: errs}
	}

	date, err := ParseDate(f.SelectedDate)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid booking details", Fields: FieldErrors{"selectedDate": err.Error()}}
	}

	ref, err := NewReference(s.now())
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		Reference:       ref,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		Email:           f.Email,
		Phone:           f.Phone,
		Country:         f.Country,
		Language:        f.Language,
		TourType:        f.TourType,
		GroupSize:       f.GroupSize,
		SelectedDate:    date,
		TimeSlot:        f.TimeSlot,
		SpecialRequests: f.SpecialRequests,
		Status:          models.BookingPending,
	}

	var stored *models.Booking
	if s.capacity > 0 {
		created, ok, err := s.repo.CreateInSlot(ctx, b, s.capacity)
		if err != nil {
			return nil, fmt.Errorf("store booking: %w", err)
		}
		if !ok {
			return nil, ErrSlotFull
		}
		stored = created
	} else {
		stored, err = s.repo.Create(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("store booking: %w", err)
		}
	}

	slog.Info("booking created", "reference", stored.Reference, "tour", stored.TourType, "date", f.SelectedDate)

	result := &Result{Booking: stored}
	confirmErr := s.notifier.BookingConfirmation(ctx, stored)
	alertErr := s.notifier.BookingOperatorAlert(ctx, stored)
	if err := errors.Join(confirmErr, alertErr); err != nil {
		slog.Warn("booking saved but notification failed", "reference", stored.Reference, "error", err)
		result.NotifyErr = err
	}
	return result, nil
}

// ValidateStep exposes the step predicates to the validation endpoint.
func (s *Service) ValidateStep(step Step, f Form) FieldErrors {
	return s.catalog.ValidateStep(step, normalise(f))
}

// checkFields returns the JSON names of absent required fields in
// declaration order, and the fields longer than their column allows.
func (s *Service) checkFields(f Form) ([]string, FieldErrors) {
	err := s.validate.Struct(f)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}, nil
	}
	var missing []string
	tooLong := FieldErrors{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		tooLong[fe.Field()] = fmt.Sprintf("Must be at most %s characters", fe.Param())
	}
	return missing, tooLong
}

func normalise(f Form) Form {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Country = strings.TrimSpace(f.Country)
	f.SelectedDate = strings.TrimSpace(f.SelectedDate)
	return f
}

// JSONFieldName reports struct fields by their JSON name in validation
// errors. Register it with validator.RegisterTagNameFunc.
func JSONFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
