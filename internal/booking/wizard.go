// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is a position in the booking wizard.
type State int

const (
	StateContact   State = iota + 1 // Step 1
	StateTour                       // Step 2
	StateSchedule                   // Step 3
	StateReview                     // Step 4
	StateSubmitted                  // terminal
	StateAbandoned                  // terminal, modal closed
)

func (s State) String() string {
	switch s {
	case StateContact:
		return "step1"
	case StateTour:
		return "step2"
	case StateSchedule:
		return "step3"
	case StateReview:
		return "step4"
	case StateSubmitted:
		return "submitted"
	case StateAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateAbandoned
}

// ErrInvalidTransition is returned when a move is not allowed from the
// current state.
var ErrInvalidTransition = errors.New("booking wizard: invalid transition")

// StepError is returned by Next and Submit when a step predicate fails.
type StepError struct {
	Step   Step
	Fields FieldErrors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d has %d invalid field(s)", e.Step, len(e.Fields))
}

// Receipt is what the submission boundary reports for an accepted booking.
type Receipt struct {
	BookingID string `json:"bookingId"`
	Message   string `json:"message"`
}

// Submitter sends an assembled booking to the persistence and notification
// boundary.
type Submitter interface {
	Submit(ctx context.Context, f Form) (*Receipt, error)
}

// Wizard is the client-side booking state machine. It holds the form being
// assembled and only advances when the current step validates. A Wizard is
// safe for concurrent use.
type Wizard struct {
	catalog   *Catalog
	submitter Submitter

	mu        sync.Mutex
	state     State
	form      Form
	errs      FieldErrors
	receipt   *Receipt
	submitErr string
}

// NewWizard starts a wizard at step 1.
func NewWizard(catalog *Catalog, submitter Submitter) *Wizard {
	return &Wizard{
		catalog:   catalog,
		submitter: submitter,
		state:     StateContact,
		errs:      FieldErrors{},
	}
}

// State returns the current position.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Form returns a copy of the data entered so far.
func (w *Wizard) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Errors returns the field errors recorded by the last failed transition.
func (w *Wizard) Errors() FieldErrors {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(FieldErrors, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

// Receipt returns the boundary's receipt once the wizard is submitted.
func (w *Wizard) Receipt() *Receipt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.receipt
}

// SubmitError returns the message of the last failed submission.
func (w *Wizard) SubmitError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitErr
}

// Edit applies fn to the form. Editing a field clears its recorded error.
func (w *Wizard) Edit(fn func(f *Form)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Terminal() {
		return ErrInvalidTransition
	}
	before := w.form
	fn(&w.form)
	for field := range changedFields(before, w.form) {
		delete(w.errs, field)
	}
	return nil
}

// Next advances one step when the current step's predicate passes.
// Otherwise the state is unchanged and a *StepError is returned.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state < StateContact || w.state >= StateReview {
		return ErrInvalidTransition
	}
	if errs := w.catalog.ValidateStep(Step(w.state), w.form); len(errs) > 0 {
		w.errs = errs
		return &StepError{Step: Step(w.state), Fields: errs}
	}
	w.errs = FieldErrors{}
	w.state++
	return nil
}

// Prev goes back one step and clears any recorded errors.
func (w *Wizard) Prev() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state <= StateContact || w.state.Terminal() {
		return ErrInvalidTransition
	}
	w.errs = FieldErrors{}
	w.submitErr = ""
	w.state--
	return nil
}

// Close abandons the wizard.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSubmitted {
		w.state = StateAbandoned
	}
}

// Submit sends the form from step 4. On success the receipt is recorded
// and the wizard is closed as submitted, even if Close ran while the
// request was in flight: the booking exists either way. On failure it stays
// at step 4 with the boundary's message available from SubmitError.
func (w *Wizard) Submit(ctx context.Context) (*Receipt, error) {
	w.mu.Lock()
	if w.state != StateReview {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if errs := w.catalog.ValidateAll(w.form); len(errs) > 0 {
		w.errs = errs
		w.mu.Unlock()
		return nil, &StepError{Step: StepReview, Fields: errs}
	}
	form := w.form
	w.submitErr = ""
	w.mu.Unlock()

	receipt, err := w.submitter.Submit(ctx, form)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if w.state == StateReview {
			w.submitErr = err.Error()
		}
		return nil, err
	}
	w.receipt = receipt
	w.state = StateSubmitted
	return receipt, nil
}

// changedFields reports the JSON names of fields that differ between a and b.
func changedFields(a, b Form) map[string]struct{} {
	changed := map[string]struct{}{}
	mark := func(name string, differs bool) {
		if differs {
			changed[name] = struct{}{}
		}
	}
	mark("firstName", a.FirstName != b.FirstName)
	mark("lastName", a.LastName != b.LastName)
	mark("email", a.Email != b.Email)
	mark("phone", a.Phone != b.Phone)
	mark("tourType", a.TourType != b.TourType)
	mark("groupSize", a.GroupSize != b.GroupSize)
	mark("selectedDate", a.SelectedDate != b.SelectedDate)
	mark("timeSlot", a.TimeSlot != b.TimeSlot)
	return changed
}
