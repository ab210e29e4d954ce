// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tourfolio/internal/cache"
	"tourfolio/internal/markdown"
	"tourfolio/internal/middleware"
	"tourfolio/internal/models"
	"tourfolio/internal/slug"
	"tourfolio/internal/store"
)

// Field limits for blog posts. The short ones match the column widths.
const (
	maxTitleLen    = 255
	maxSlugLen     = 255
	maxAuthorLen   = 100
	maxCategoryLen = 100
	maxImageURLLen = 500
	maxExcerptLen  = 1_000
	maxContentLen  = 200_000
)

// BlogRepository is the versioned post store behind the blog endpoints.
type BlogRepository interface {
	Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error)
	Update(ctx context.Context, id uuid.UUID, patch models.BlogPostPatch, summary string, expectedVersion *int) (*models.BlogPost, error)
	RestoreVersion(ctx context.Context, postID uuid.UUID, version int, expectedVersion *int) (*models.BlogPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	List(ctx context.Context) ([]models.BlogPost, error)
	ListPublished(ctx context.Context, category string, page store.Page) ([]models.BlogPost, int, error)
	ListVersions(ctx context.Context, postID uuid.UUID) ([]models.BlogPostVersion, error)
}

// ResponseCache stores rendered public responses. A nil cache disables
// caching.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Invalidate(ctx context.Context)
}

// ImageStore is the bucket featured images live in. Images a post no
// longer references are removed from it.
type ImageStore interface {
	KeyFromURL(rawURL string) (string, bool)
	Delete(ctx context.Context, key string) error
}

// Blog groups the public blog endpoints and the admin post editor.
type Blog struct {
	posts         BlogRepository
	cache         ResponseCache
	images        ImageStore
	defaultAuthor string
}

// NewBlog creates the blog handler group. Posts created without an author
// are credited to defaultAuthor.
func NewBlog(posts BlogRepository, responseCache ResponseCache, defaultAuthor string) *Blog {
	return &Blog{posts: posts, cache: responseCache, defaultAuthor: defaultAuthor}
}

// WithImageCleanup makes deletes and featured image replacements remove
// the orphaned object from images.
func (h *Blog) WithImageCleanup(images ImageStore) *Blog {
	h.images = images
	return h
}

// featuredImage returns the current featured image URL of a post, or ""
// when cleanup is disabled or the post cannot be read.
func (h *Blog) featuredImage(ctx context.Context, id uuid.UUID) string {
	if h.images == nil {
		return ""
	}
	post, err := h.posts.FindByID(ctx, id)
	if err != nil || post.FeaturedImage == nil {
		return ""
	}
	return *post.FeaturedImage
}

// removeImage deletes an orphaned featured image. Failures only leave a
// stray object behind, so they are logged and not reported.
func (h *Blog) removeImage(ctx context.Context, url string) {
	if h.images == nil || url == "" {
		return
	}
	key, ok := h.images.KeyFromURL(url)
	if !ok {
		return
	}
	if err := h.images.Delete(ctx, key); err != nil {
		slog.Warn("remove orphaned featured image", "key", key, "error", err)
		return
	}
	slog.Info("orphaned featured image removed", "key", key)
}

// --- Public ---

// PublicList serves published posts, newest first, filtered by ?category=.
func (h *Blog) PublicList(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	page := pageFromQuery(r, 10)
	n, size := page.Normalize()
	key := cache.ListKey(category, n, size)

	if h.serveCached(w, r, key) {
		return
	}

	posts, total, err := h.posts.ListPublished(r.Context(), category, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeCached(w, r, key, map[string]any{
		"success": true,
		"posts":   posts,
		"meta":    newPageMeta(page, total),
	})
}

// PublicPost serves one published post by slug with its content rendered
// to HTML.
func (h *Blog) PublicPost(w http.ResponseWriter, r *http.Request) {
	postSlug := chi.URLParam(r, "slug")
	if !slug.Valid(postSlug) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	key := cache.PostKey(postSlug)
	if h.serveCached(w, r, key) {
		return
	}

	post, err := h.posts.FindPublishedBySlug(r.Context(), postSlug)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		respondError(w, r, err)
		return
	}

	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.writeCached(w, r, key, map[string]any{
		"success":     true,
		"post":        post,
		"contentHtml": html,
		"readingTime": markdown.ReadingTime(post.Content),
	})
}

func (h *Blog) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.cache == nil {
		return false
	}
	body, ok := h.cache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	return true
}

func (h *Blog) writeCached(w http.ResponseWriter, r *http.Request, key string, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		respondError(w, r, err)
		return
	}
	if h.cache != nil {
		h.cache.Set(r.Context(), key, buf.Bytes())
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Blog) invalidate(ctx context.Context) {
	if h.cache != nil {
		h.cache.Invalidate(ctx)
	}
}

// --- Admin ---

// List returns every post, drafts included, newest first.
func (h *Blog) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "posts": posts})
}

// Get returns one post by id.
func (h *Blog) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

type createPostRequest struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	Author        string   `json:"author"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featured_image"`
	Published     bool     `json:"published"`
}

// Create stores a new post as version 1. An empty slug is derived from
// the title.
func (h *Blog) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	postSlug := slug.Generate(req.Slug)
	if postSlug == "" {
		postSlug = slug.Generate(req.Title)
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = h.defaultAuthor
	}
	category := strings.TrimSpace(req.Category)
	img := strings.TrimSpace(req.FeaturedImage)

	fields := models.BlogPostPatch{
		Title:         &req.Title,
		Slug:          &postSlug,
		Excerpt:       &req.Excerpt,
		Content:       &req.Content,
		Author:        &author,
		Category:      &category,
		FeaturedImage: &img,
	}
	if msg := checkPostFields(&fields); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}
	if postSlug == "" {
		writeError(w, http.StatusBadRequest, "A slug could not be derived from the title")
		return
	}

	post := &models.BlogPost{
		Title:     req.Title,
		Slug:      postSlug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Author:    author,
		Category:  category,
		Tags:      cleanTags(req.Tags),
		Published: req.Published,
	}
	if img != "" {
		post.FeaturedImage = &img
	}

	created, err := h.posts.Create(r.Context(), post)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	slog.Info("blog post created", "id", created.ID, "slug", created.Slug, "by", actor(r))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post": created})
}

type updatePostRequest struct {
	models.BlogPostPatch
	ChangeSummary   string `json:"changeSummary"`
	ExpectedVersion *int   `json:"expectedVersion"`
}

// Update applies a partial edit and appends a version. expectedVersion,
// when sent, makes the edit fail with 409 if someone else saved first.
func (h *Blog) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	patch := req.BlogPostPatch
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		patch.Title = &t
	}
	if patch.Slug != nil {
		s := slug.Generate(*patch.Slug)
		if s == "" {
			writeError(w, http.StatusBadRequest, "Slug cannot be empty")
			return
		}
		patch.Slug = &s
	}
	if patch.Author != nil {
		a := strings.TrimSpace(*patch.Author)
		patch.Author = &a
	}
	if patch.Category != nil {
		c := strings.TrimSpace(*patch.Category)
		patch.Category = &c
	}
	if patch.Tags != nil {
		tags := cleanTags(*patch.Tags)
		patch.Tags = &tags
	}
	if patch.FeaturedImage != nil {
		img := strings.TrimSpace(*patch.FeaturedImage)
		patch.FeaturedImage = &img
	}
	if msg := checkPostFields(&patch); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var previousImage string
	if patch.FeaturedImage != nil {
		previousImage = h.featuredImage(r.Context(), id)
	}

	updated, err := h.posts.Update(r.Context(), id, patch, strings.TrimSpace(req.ChangeSummary), req.ExpectedVersion)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	if patch.FeaturedImage != nil && *patch.FeaturedImage != previousImage {
		h.removeImage(r.Context(), previousImage)
	}
	slog.Info("blog post updated", "id", id, "version", updated.Version, "by", actor(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": updated})
}

// Delete removes a post and its version log.
func (h *Blog) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	image := h.featuredImage(r.Context(), id)
	if err := h.posts.Delete(r.Context(), id); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		respondError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	h.removeImage(r.Context(), image)
	slog.Info("blog post deleted", "id", id, "by", actor(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Post deleted successfully"})
}

// Versions lists a post's version log, newest first.
func (h *Blog) Versions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	versions, err := h.posts.ListVersions(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "versions": versions})
}

// Restore copies an earlier version's text back onto the post as a new
// version. The body is {"version": n} with n a positive integer.
func (h *Blog) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Version         any  `json:"version"`
		ExpectedVersion *int `json:"expectedVersion"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	v, isNumber := req.Version.(float64)
	if !isNumber || v < 1 || v != math.Trunc(v) || v > math.MaxInt32 {
		writeError(w, http.StatusBadRequest, "Invalid version number")
		return
	}

	restored, err := h.posts.RestoreVersion(r.Context(), id, int(v), req.ExpectedVersion)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	slog.Info("blog post restored", "id", id, "from_version", int(v), "version", restored.Version, "by", actor(r))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": restored})
}

// checkPostFields validates the fields present in p and returns the first
// problem as a message, or "" when everything fits.
func checkPostFields(p *models.BlogPostPatch) string {
	if p.Title != nil {
		if *p.Title == "" {
			return "Title is required"
		}
		if utf8.RuneCountInString(*p.Title) > maxTitleLen {
			return "Title is too long (max 255 characters)"
		}
	}
	if p.Slug != nil && utf8.RuneCountInString(*p.Slug) > maxSlugLen {
		return "Slug is too long (max 255 characters)"
	}
	if p.Author != nil && utf8.RuneCountInString(*p.Author) > maxAuthorLen {
		return "Author is too long (max 100 characters)"
	}
	if p.Category != nil && utf8.RuneCountInString(*p.Category) > maxCategoryLen {
		return "Category is too long (max 100 characters)"
	}
	if p.FeaturedImage != nil && utf8.RuneCountInString(*p.FeaturedImage) > maxImageURLLen {
		return "Featured image URL is too long (max 500 characters)"
	}
	if p.Excerpt != nil && utf8.RuneCountInString(*p.Excerpt) > maxExcerptLen {
		return "Excerpt is too long (max 1,000 characters)"
	}
	if p.Content != nil && utf8.RuneCountInString(*p.Content) > maxContentLen {
		return "Content is too long (max 200,000 characters)"
	}
	return ""
}

// cleanTags trims tags and drops empty and duplicate entries.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// actor names the operator behind an admin request for the audit log.
func actor(r *http.Request) string {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess.Username
	}
	return ""
}
