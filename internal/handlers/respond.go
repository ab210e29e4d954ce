// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the tourfolio server. Every
// response carries a "success" flag; failures add an "error" message.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tourfolio/internal/auth"
	"tourfolio/internal/booking"
	"tourfolio/internal/storage"
	"tourfolio/internal/store"
)

// maxJSONBody caps request bodies of the JSON endpoints.
const maxJSONBody = 1 << 20

// errBadBody is reported for undecodable request bodies.
var errBadBody = errors.New("invalid request body")

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

// writeError writes {"success": false, "error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		slog.Debug("decode request body", "path", r.URL.Path, "error", err)
		return errBadBody
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errBadBody
	}
	return nil
}

// respondError maps domain errors onto HTTP statuses. Anything unrecognised
// is logged with its detail and reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		body := map[string]any{"success": false, "error": verr.Message}
		if len(verr.MissingFields) > 0 {
			body["missingFields"] = verr.MissingFields
		}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, "Invalid request body")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrVersionConflict):
		writeError(w, http.StatusConflict, "The post was changed by another edit; reload and try again")
	case errors.Is(err, store.ErrSlugTaken):
		writeError(w, http.StatusConflict, "Slug is already in use")
	case errors.Is(err, booking.ErrSlotFull):
		writeError(w, http.StatusConflict, "The selected time slot is fully booked")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, auth.ErrTwoFactorEnabled),
		errors.Is(err, auth.ErrTwoFactorNotEnabled),
		errors.Is(err, auth.ErrTwoFactorNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "Only JPEG, PNG, WebP and GIF images are allowed")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses the {id} URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// pageFromQuery reads ?page= and ?pageSize=. Missing or malformed values
// fall back to the store defaults.
func pageFromQuery(r *http.Request, defaultSize int) store.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil || size <= 0 {
		size = defaultSize
	}
	return store.Page{Page: page, PageSize: size}
}

// pageMeta is the pagination block of list responses.
type pageMeta struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

func newPageMeta(p store.Page, total int) pageMeta {
	page, size := p.Normalize()
	count := 0
	if total > 0 {
		count = (total + size - 1) / size
	}
	return pageMeta{Page: page, PageSize: size, PageCount: count, Total: total}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
