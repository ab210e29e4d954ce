// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Step identifies a wizard page.
type Step int

const (
	StepContact Step = iota + 1 // personal details
	StepTour                    // tour choice
	StepSchedule                // date, slot and group
	StepReview                  // confirmation
)

// ParseStep converts a 1-based step number.
func ParseStep(n int) (Step, error) {
	if n < int(StepContact) || n > int(StepReview) {
		return 0, fmt.Errorf("unknown step %d", n)
	}
	return Step(n), nil
}

// Form is the booking payload assembled by the wizard and accepted by
// POST /api/bookings. SelectedDate is YYYY-MM-DD or RFC 3339.
type Form struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,max=255"`
	Phone           string `json:"phone" validate:"required,max=50"`
	Country         string `json:"country,omitempty" validate:"max=100"`
	Language        string `json:"language,omitempty" validate:"max=50"`
	TourType        string `json:"tourType" validate:"required"`
	GroupSize       int    `json:"groupSize" validate:"required"`
	SelectedDate    string `json:"selectedDate" validate:"required"`
	TimeSlot        string `json:"timeSlot" validate:"required"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// UnmarshalJSON accepts groupSize as a number or as a numeric string, the
// way HTML select controls submit it.
func (f *Form) UnmarshalJSON(data []byte) error {
	type plain Form
	aux := struct {
		*plain
		GroupSize json.RawMessage `json:"groupSize"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	f.GroupSize = 0
	raw := bytes.TrimSpace(aux.GroupSize)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, &f.GroupSize); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("groupSize must be a number")
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("groupSize must be a number")
	}
	f.GroupSize = n
	return nil
}

// FieldErrors maps a JSON field name to a human-readable message.
type FieldErrors map[string]string

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneStrip   = regexp.MustCompile(`[\s\-()]`)
	phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
)

// ValidEmail applies the booking form's email shape check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone accepts at least ten characters once spaces, dashes and
// parentheses are removed, optionally led by "+".
func ValidPhone(phone string) bool {
	cleaned := phoneStrip.ReplaceAllString(phone, "")
	return len(cleaned) >= 10 && phonePattern.MatchString(cleaned)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns
// the date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ValidateStep checks the fields owned by step. An empty result means the
// step may be left.
func (c *Catalog) ValidateStep(step Step, f Form) FieldErrors {
	errs := FieldErrors{}

	switch step {
	case StepContact:
		if strings.TrimSpace(f.FirstName) == "" {
			errs["firstName"] = "First name is required"
		}
		if strings.TrimSpace(f.LastName) == "" {
			errs["lastName"] = "Last name is required"
		}
		switch email := strings.TrimSpace(f.Email); {
		case email == "":
			errs["email"] = "Email is required"
		case !ValidEmail(email):
			errs["email"] = "Please enter a valid email address"
		}
		switch phone := strings.TrimSpace(f.Phone); {
		case phone == "":
			errs["phone"] = "Phone number is required"
		case !ValidPhone(phone):
			errs["phone"] = "Please enter a valid phone number"
		}

	case StepTour:
		if f.TourType == "" {
			errs["tourType"] = "Please select a tour package"
		} else if _, ok := c.Tour(f.TourType); !ok {
			errs["tourType"] = "Unknown tour package"
		}

	case StepSchedule:
		if strings.TrimSpace(f.SelectedDate) == "" {
			errs["selectedDate"] = "Please select a date"
		} else if _, err := ParseDate(f.SelectedDate); err != nil {
			errs["selectedDate"] = "Please select a valid date"
		}
		if f.TimeSlot == "" {
			errs["timeSlot"] = "Please select a time slot"
		} else if !c.HasTimeSlot(f.TimeSlot) {
			errs["timeSlot"] = "Unknown time slot"
		}
		if f.GroupSize < c.GroupSize.Min || f.GroupSize > c.GroupSize.Max {
			errs["groupSize"] = fmt.Sprintf("Group size must be between %d and %d", c.GroupSize.Min, c.GroupSize.Max)
		}

	case StepReview:
		// Review has no fields of its own.
	}

	return errs
}

// ValidateAll runs the predicates of every data-entry step and merges the
// results.
func (c *Catalog) ValidateAll(f Form) FieldErrors {
	all := FieldErrors{}
	for _, step := range []Step{StepContact, StepTour, StepSchedule} {
		for field, msg := range c.ValidateStep(step, f) {
			all[field] = msg
		}
	}
	return all
}
