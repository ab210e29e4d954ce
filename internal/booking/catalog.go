// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package booking implements the tour booking flow: the tour catalog, the
// per-step validation predicates shared by client and server, the
// client-side wizard state machine and the server-side submission service.
package booking

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed tours.yaml
var toursYAML []byte

// Tour is a bookable package. MaxGroup 0 means flexible.
type Tour struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Duration    string   `yaml:"duration" json:"duration"`
	Price       string   `yaml:"price" json:"price"`
	MaxGroup    int      `yaml:"max_group" json:"maxGroup"`
	Description string   `yaml:"description" json:"description"`
	Includes    []string `yaml:"includes" json:"includes"`
}

// GroupLimits bounds the number of travellers in one booking.
type GroupLimits struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Catalog is the fixed set of tours, time slots and languages offered.
type Catalog struct {
	Tours     []Tour      `yaml:"tours" json:"tours"`
	TimeSlots []string    `yaml:"time_slots" json:"timeSlots"`
	Languages []string    `yaml:"languages" json:"languages"`
	GroupSize GroupLimits `yaml:"group_size" json:"groupSize"`
}

// LoadCatalog parses the embedded tour catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(toursYAML)
}

// ParseCatalog decodes a catalog document and checks it is usable.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse tour catalog: %w", err)
	}
	if len(c.Tours) == 0 {
		return nil, fmt.Errorf("tour catalog has no tours")
	}
	if len(c.TimeSlots) == 0 {
		return nil, fmt.Errorf("tour catalog has no time slots")
	}
	if c.GroupSize.Min < 1 || c.GroupSize.Max < c.GroupSize.Min {
		return nil, fmt.Errorf("tour catalog group size %d-%d is invalid", c.GroupSize.Min, c.GroupSize.Max)
	}
	return &c, nil
}

// MustLoadCatalog is LoadCatalog for package initialisation and tests.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Tour looks up a tour by ID.
func (c *Catalog) Tour(id string) (Tour, bool) {
	for _, t := range c.Tours {
		if t.ID == id {
			return t, true
		}
	}
	return Tour{}, false
}

// HasTimeSlot reports whether slot is one of the offered time slots.
func (c *Catalog) HasTimeSlot(slot string) bool {
	return slices.Contains(c.TimeSlots, slot)
}
