// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"tourfolio/internal/auth"
	"tourfolio/internal/middleware"
	"tourfolio/internal/models"
	"tourfolio/internal/store"
)

// --- request helpers ---

// do sends a request through h and decodes the JSON response body.
func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(middleware.WithSession(req.Context(), &auth.Session{
		Username: "admin",
		Role:     models.RoleAdmin,
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, out
}

// --- blog ---

// memBlog is an in-memory BlogRepository with the same version rules as
// the Postgres store.
type memBlog struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]*models.BlogPost
	versions map[uuid.UUID][]models.BlogPostVersion
	err      error
}

func newMemBlog() *memBlog {
	return &memBlog{
		posts:    map[uuid.UUID]*models.BlogPost{},
		versions: map[uuid.UUID][]models.BlogPostVersion{},
	}
}

func (m *memBlog) slugTaken(slug string, except uuid.UUID) bool {
	for id, p := range m.posts {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

func (m *memBlog) Create(_ context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.slugTaken(post.Slug, uuid.Nil) {
		return nil, store.ErrSlugTaken
	}
	p := *post
	p.ID = uuid.New()
	p.Version = 1
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.posts[p.ID] = &p
	m.versions[p.ID] = []models.BlogPostVersion{p.Snapshot(models.SummaryInitial)}
	out := p
	return &out, nil
}

func (m *memBlog) apply(id uuid.UUID, patch models.BlogPostPatch, summary string, expected *int) (*models.BlogPost, error) {
	cur, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if expected != nil && *expected != cur.Version {
		return nil, store.ErrVersionConflict
	}
	if patch.Slug != nil && m.slugTaken(*patch.Slug, id) {
		return nil, store.ErrSlugTaken
	}
	next := patch.Apply(*cur)
	next.Version = cur.Version + 1
	next.UpdatedAt = time.Now()
	if summary == "" {
		summary = models.SummaryUpdated
	}
	m.posts[id] = &next
	m.versions[id] = append(m.versions[id], next.Snapshot(summary))
	out := next
	return &out, nil
}

func (m *memBlog) Update(_ context.Context, id uuid.UUID, patch models.BlogPostPatch, summary string, expected *int) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(id, patch, summary, expected)
}

func (m *memBlog) RestoreVersion(_ context.Context, id uuid.UUID, version int, expected *int) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[id] {
		if v.Version == version {
			patch := models.BlogPostPatch{Title: &v.Title, Content: &v.Content, Excerpt: &v.Excerpt}
			return m.apply(id, patch, "Restored from version "+strconv.Itoa(version), expected)
		}
	}
	return nil, store.ErrNotFound
}

func (m *memBlog) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.posts, id)
	delete(m.versions, id)
	return nil
}

func (m *memBlog) FindByID(_ context.Context, id uuid.UUID) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *memBlog) FindPublishedBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug && p.Published {
			out := *p
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memBlog) sorted(keep func(*models.BlogPost) bool) []models.BlogPost {
	out := []models.BlogPost{}
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memBlog) List(context.Context) ([]models.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*models.BlogPost) bool { return true }), nil
}

func (m *memBlog) ListPublished(_ context.Context, category string, page store.Page) ([]models.BlogPost, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	all := m.sorted(func(p *models.BlogPost) bool {
		return p.Published && (category == "" || p.Category == category)
	})
	n, size := page.Normalize()
	start := min((n-1)*size, len(all))
	end := min(start+size, len(all))
	return all[start:end], len(all), nil
}

func (m *memBlog) ListVersions(_ context.Context, id uuid.UUID) ([]models.BlogPostVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[id]
	out := make([]models.BlogPostVersion, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out, nil
}

// memCache is an in-memory ResponseCache.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, ok
}

func (c *memCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = bytes.Clone(body)
}

func (c *memCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	c.invalidated++
}

// --- bookings and contacts ---

// memBookings backs both the booking service and the admin endpoints.
type memBookings struct {
	mu       sync.Mutex
	bookings []*models.Booking
}

func (m *memBookings) Create(_ context.Context, b *models.Booking) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *b
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	m.bookings = append(m.bookings, &stored)
	out := stored
	return &out, nil
}

func (m *memBookings) CreateInSlot(_ context.Context, b *models.Booking, capacity int) (*models.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, existing := range m.bookings {
		if existing.TourType == b.TourType && existing.SelectedDate.Equal(b.SelectedDate) && existing.TimeSlot == b.TimeSlot {
			n++
		}
	}
	if n >= capacity {
		return nil, false, nil
	}
	stored := *b
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	m.bookings = append(m.bookings, &stored)
	out := stored
	return &out, true, nil
}

func (m *memBookings) List(_ context.Context, f store.BookingFilter) ([]models.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Booking{}
	for _, b := range m.bookings {
		if f.Status == "" || string(b.Status) == f.Status {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id uuid.UUID, status models.BookingStatus, note string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			b.Status = status
			b.AdminNotes = note
			out := *b
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

type memContacts struct {
	mu       sync.Mutex
	contacts []*models.Contact
}

func (m *memContacts) Create(_ context.Context, c *models.Contact) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	stored.ID = uuid.New()
	stored.Status = models.ContactNew
	m.contacts = append(m.contacts, &stored)
	out := stored
	return &out, nil
}

func (m *memContacts) List(_ context.Context, f store.ContactFilter) ([]models.Contact, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Contact{}
	for _, c := range m.contacts {
		if f.Status == "" || string(c.Status) == f.Status {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memContacts) UpdateStatus(_ context.Context, id uuid.UUID, status models.ContactStatus) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			c.Status = status
			out := *c
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

// recordingNotifier counts every email kind and fails when err is set.
type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string]int
	err  error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: map[string]int{}}
}

func (n *recordingNotifier) record(kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[kind]++
	return n.err
}

func (n *recordingNotifier) BookingConfirmation(context.Context, *models.Booking) error {
	return n.record("booking-confirmation")
}

func (n *recordingNotifier) BookingOperatorAlert(context.Context, *models.Booking) error {
	return n.record("booking-alert")
}

func (n *recordingNotifier) BookingStatusUpdate(context.Context, *models.Booking) error {
	return n.record("booking-status")
}

func (n *recordingNotifier) ContactConfirmation(context.Context, *models.Contact) error {
	return n.record("contact-confirmation")
}

func (n *recordingNotifier) ContactOperatorAlert(context.Context, *models.Contact) error {
	return n.record("contact-alert")
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[kind]
}
