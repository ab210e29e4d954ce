// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSubmitter posts bookings to a running server's /api/bookings endpoint.
type HTTPSubmitter struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSubmitter creates a submitter for the server at baseURL.
func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// submitResponse mirrors the JSON returned by POST /api/bookings.
type submitResponse struct {
	Success   bool   `json:"success"`
	BookingID string `json:"bookingId"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// Submit implements Submitter. A non-2xx response becomes an error carrying
// the server's error message.
func (s *HTTPSubmitter) Submit(ctx context.Context, f Form) (*Receipt, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode booking: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send booking: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read booking response: %w", err)
	}

	var out submitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("booking response status %d: %w", resp.StatusCode, err)
	}

	if resp.StatusCode/100 != 2 || !out.Success {
		if out.Error == "" {
			out.Error = http.StatusText(resp.StatusCode)
		}
		return nil, errors.New(out.Error)
	}
	return &Receipt{BookingID: out.BookingID, Message: out.Message}, nil
}
