// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// BackupCodeCount is how many single-use recovery codes are issued.
const BackupCodeCount = 8

// totpOpts matches what authenticator apps expect: 6 digits, 30 s period,
// one step of clock skew either way.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Enrollment is a freshly generated, not yet confirmed TOTP secret.
type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
	QRCode string `json:"qrCode"` // base64 PNG
}

// NewEnrollment generates a TOTP secret for account and renders its
// provisioning URI as a QR code.
func NewEnrollment(issuer, account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// ValidateTOTP reports whether code is valid for secret at time t.
func ValidateTOTP(code, secret string, t time.Time) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.UTC(), totpOpts)
	return err == nil && ok
}

// GenerateBackupCodes returns BackupCodeCount codes of eight uppercase hex
// characters together with their hashes for storage.
func GenerateBackupCodes() (codes, hashes []string, err error) {
	codes = make([]string, BackupCodeCount)
	hashes = make([]string, BackupCodeCount)
	buf := make([]byte, 4)
	for i := range codes {
		if _, err := rand.Read(buf); err != nil {
			return nil, nil, fmt.Errorf("backup codes: %w", err)
		}
		codes[i] = strings.ToUpper(hex.EncodeToString(buf))
		hashes[i] = HashBackupCode(codes[i])
	}
	return codes, hashes, nil
}

// HashBackupCode returns the stored form of a backup code. Input is
// normalised so codes can be typed in any case, with or without spaces.
func HashBackupCode(code string) string {
	normalised := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])
}
