// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// referencePattern matches values produced by NewReference.
var referencePattern = regexp.MustCompile(`^BK\d+-[A-Z0-9]{6}$`)

// NewReference builds a booking reference of the form
// BK<unix-millis>-<6 chars of [A-Z0-9]>.
func NewReference(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	limit := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("booking reference: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("BK%d-%s", now.UnixMilli(), suffix), nil
}

// ValidReference reports whether ref has the booking reference shape.
func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}
