// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tourfolio/internal/storage"
)

// ImageUploader stores featured images and returns their public URL.
type ImageUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Media handles featured image uploads for blog posts.
type Media struct {
	uploader ImageUploader
	now      func() time.Time
}

// NewMedia creates the media handler. A nil uploader answers 503, so the
// route can stay mounted when object storage is not configured.
func NewMedia(uploader ImageUploader) *Media {
	return &Media{uploader: uploader, now: time.Now}
}

// Upload accepts a multipart "file" field holding a JPEG, PNG, WebP or GIF
// image and returns the URL to store in a post's featured_image.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	const maxBody = storage.MaxImageSize + 1024 // room for the multipart framing
	if r.ContentLength > maxBody {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 5 MB")
		return
	}

	// The stored type comes from the bytes; the client's header is ignored.
	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		respondError(w, r, err)
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(w, r, err)
		return
	}

	key, err := storage.ImageKey(contentType, h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	url, err := h.uploader.Upload(r.Context(), key, contentType, file, header.Size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	slog.Info("featured image uploaded", "key", key, "size", header.Size, "by", actor(r))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"url":     url,
		"key":     key,
	})
}
