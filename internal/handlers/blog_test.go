// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type blogFixture struct {
	router http.Handler
	posts  *memBlog
	cache  *memCache
}

func newBlogFixture(t *testing.T) *blogFixture {
	t.Helper()
	posts := newMemBlog()
	c := newMemCache()
	h := NewBlog(posts, c, "Eyob Salemot")

	r := chi.NewRouter()
	r.Get("/api/blog", h.PublicList)
	r.Get("/api/blog/{slug}", h.PublicPost)
	r.Route("/api/admin/blog", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/versions", h.Versions)
		r.Post("/{id}/restore", h.Restore)
	})
	return &blogFixture{router: r, posts: posts, cache: c}
}

// create posts a new article and returns its id.
func (f *blogFixture) create(t *testing.T, body string) string {
	t.Helper()
	w, out := do(t, f.router, http.MethodPost, "/api/admin/blog", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d (%v)", w.Code, out)
	}
	post, _ := out["post"].(map[string]any)
	id, _ := post["id"].(string)
	return id
}

func TestBlogCreate(t *testing.T) {
	f := newBlogFixture(t)

	w, out := do(t, f.router, http.MethodPost, "/api/admin/blog",
		`{"title":"  Timket in Gondar  ","content":"Epiphany by the bath.","tags":["festival"," festival ",""]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d (%v)", w.Code, out)
	}
	post, _ := out["post"].(map[string]any)

	checks := map[string]any{
		"title":   "Timket in Gondar",
		"slug":    "timket-in-gondar",
		"author":  "Eyob Salemot",
		"version": float64(1),
	}
	for k, want := range checks {
		if post[k] != want {
			t.Errorf("%s = %v, want %v", k, post[k], want)
		}
	}
	if tags, _ := post["tags"].([]any); len(tags) != 1 {
		t.Errorf("tags = %v, want [festival]", post["tags"])
	}
	if f.cache.invalidated != 1 {
		t.Errorf("cache invalidated %d times, want 1", f.cache.invalidated)
	}
}

func TestBlogCreateValidation(t *testing.T) {
	long := func(n int) string { return strings.Repeat("t", n) }
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"missing title", `{"content":"x"}`, http.StatusBadRequest, "Title is required"},
		{"missing content", `{"title":"x"}`, http.StatusBadRequest, "Content is required"},
		{"title at limit", `{"title":"` + long(255) + `","content":"x"}`, http.StatusCreated, ""},
		{"title too long", `{"title":"` + long(256) + `","content":"x"}`, http.StatusBadRequest, "Title is too long (max 255 characters)"},
		{"slug too long", `{"title":"x","slug":"` + long(256) + `","content":"x"}`, http.StatusBadRequest, "Slug is too long (max 255 characters)"},
		{"author at limit", `{"title":"x","author":"` + long(100) + `","content":"x"}`, http.StatusCreated, ""},
		{"author too long", `{"title":"x","author":"` + long(101) + `","content":"x"}`, http.StatusBadRequest, "Author is too long (max 100 characters)"},
		{"category too long", `{"title":"x","category":"` + long(101) + `","content":"x"}`, http.StatusBadRequest, "Category is too long (max 100 characters)"},
		{"image url too long", `{"title":"x","featured_image":"https://` + long(493) + `","content":"x"}`, http.StatusBadRequest, "Featured image URL is too long (max 500 characters)"},
		{"no slug derivable", `{"title":"!!!","content":"x"}`, http.StatusBadRequest, ""},
		{"not json", `title=x`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBlogFixture(t)
			w, out := do(t, f.router, http.MethodPost, "/api/admin/blog", tt.body)
			if w.Code != tt.status {
				t.Errorf("status: got %d, want %d (%v)", w.Code, tt.status, out)
			}
			if tt.msg != "" && out["error"] != tt.msg {
				t.Errorf("error = %v, want %q", out["error"], tt.msg)
			}
		})
	}
}

func TestBlogUpdateFieldLimits(t *testing.T) {
	f := newBlogFixture(t)
	id := f.create(t, `{"title":"Axum","content":"Stelae."}`)

	tests := []struct {
		body   string
		status int
	}{
		{`{"title":"` + strings.Repeat("a", 256) + `"}`, http.StatusBadRequest},
		{`{"author":"` + strings.Repeat("a", 101) + `"}`, http.StatusBadRequest},
		{`{"category":"` + strings.Repeat("a", 101) + `"}`, http.StatusBadRequest},
		{`{"category":"  ` + strings.Repeat("a", 100) + `  "}`, http.StatusOK},
	}
	for _, tt := range tests {
		w, out := do(t, f.router, http.MethodPut, "/api/admin/blog/"+id, tt.body)
		if w.Code != tt.status {
			t.Errorf("%.40s: got %d, want %d (%v)", tt.body, w.Code, tt.status, out)
		}
	}
}

func TestBlogCreateDuplicateSlug(t *testing.T) {
	f := newBlogFixture(t)
	f.create(t, `{"title":"Lalibela","content":"Rock churches."}`)

	w, _ := do(t, f.router, http.MethodPost, "/api/admin/blog", `{"title":"Lalibela","content":"Again."}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", w.Code)
	}
}

func TestBlogUpdateAndVersions(t *testing.T) {
	f := newBlogFixture(t)
	id := f.create(t, `{"title":"Simien","content":"Draft one."}`)

	w, out := do(t, f.router, http.MethodPut, "/api/admin/blog/"+id,
		`{"content":"Draft two.","changeSummary":"Rewrote intro","expectedVersion":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d (%v)", w.Code, out)
	}
	post, _ := out["post"].(map[string]any)
	if post["version"] != float64(2) || post["content"] != "Draft two." || post["title"] != "Simien" {
		t.Errorf("updated post = %v", post)
	}

	// A second editor still holding version 1 loses.
	w, _ = do(t, f.router, http.MethodPut, "/api/admin/blog/"+id, `{"content":"Stale.","expectedVersion":1}`)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update: got %d, want 409", w.Code)
	}

	w, out = do(t, f.router, http.MethodGet, "/api/admin/blog/"+id+"/versions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("versions: %d", w.Code)
	}
	versions, _ := out["versions"].([]any)
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(versions))
	}
	latest, _ := versions[0].(map[string]any)
	if latest["version"] != float64(2) || latest["change_summary"] != "Rewrote intro" {
		t.Errorf("latest version = %v", latest)
	}
}

func TestBlogUpdateErrors(t *testing.T) {
	f := newBlogFixture(t)
	id := f.create(t, `{"title":"Harar","content":"Walled city."}`)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"invalid id", "nope", `{"title":"x"}`, http.StatusBadRequest},
		{"unknown post", uuid.NewString(), `{"title":"x"}`, http.StatusNotFound},
		{"empty title", id, `{"title":"  "}`, http.StatusBadRequest},
		{"empty slug", id, `{"slug":"???"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, f.router, http.MethodPut, "/api/admin/blog/"+tt.id, tt.body)
			if w.Code != tt.status {
				t.Errorf("status: got %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestBlogRestore(t *testing.T) {
	f := newBlogFixture(t)
	id := f.create(t, `{"title":"Axum","content":"Obelisks."}`)
	if w, _ := do(t, f.router, http.MethodPut, "/api/admin/blog/"+id, `{"content":"Stelae field."}`); w.Code != http.StatusOK {
		t.Fatalf("update: %d", w.Code)
	}

	w, out := do(t, f.router, http.MethodPost, "/api/admin/blog/"+id+"/restore", `{"version":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("restore: %d (%v)", w.Code, out)
	}
	post, _ := out["post"].(map[string]any)
	if post["content"] != "Obelisks." || post["version"] != float64(3) {
		t.Errorf("restored post = %v", post)
	}
}

func TestBlogRestoreInvalidVersion(t *testing.T) {
	f := newBlogFixture(t)
	id := f.create(t, `{"title":"Bale","content":"Mountains."}`)

	for _, body := range []string{
		`{"version":"1"}`,
		`{"version":0}`,
		`{"version":-2}`,
		`{"version":1.5}`,
		`{"version":null}`,
		`{}`,
		`{"version":1e12}`,
	} {
		w, out := do(t, f.router, http.MethodPost, "/api/admin/blog/"+id+"/restore", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", body, w.Code)
			continue
		}
		if out["error"] != "Invalid version number" {
			t.Errorf("%s: error = %v", body, out["error"])
		}
	}

	w, _ := do(t, f.router, http.MethodPost, "/api/admin/blog/"+id+"/restore", `{"version":7}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing version: got %d, want 404", w.Code)
	}
}

func TestBlogDelete(t *testing.T) {
	f := newBlogFixture(t)
	id := f.create(t, `{"title":"Omo Valley","content":"Rivers."}`)

	w, out := do(t, f.router, http.MethodDelete, "/api/admin/blog/"+id, "")
	if w.Code != http.StatusOK || out["message"] != "Post deleted successfully" {
		t.Fatalf("delete: %d %v", w.Code, out)
	}
	w, out = do(t, f.router, http.MethodDelete, "/api/admin/blog/"+id, "")
	if w.Code != http.StatusNotFound || out["error"] != "Post not found" {
		t.Errorf("second delete: %d %v", w.Code, out)
	}
}

func TestBlogPublicPost(t *testing.T) {
	f := newBlogFixture(t)
	f.create(t, `{"title":"Coffee Ceremony","content":"# Jebena\n\nThree rounds.","published":true}`)
	f.create(t, `{"title":"Hidden Draft","content":"Not yet."}`)

	w, out := do(t, f.router, http.MethodGet, "/api/blog/coffee-ceremony", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d (%v)", w.Code, out)
	}
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	html, _ := out["contentHtml"].(string)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "Jebena") {
		t.Errorf("contentHtml = %q", html)
	}
	if out["readingTime"] != float64(1) {
		t.Errorf("readingTime = %v", out["readingTime"])
	}

	w, _ = do(t, f.router, http.MethodGet, "/api/blog/coffee-ceremony", "")
	if got := w.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}

	for _, path := range []string{"/api/blog/hidden-draft", "/api/blog/no-such-post", "/api/blog/Bad%20Slug"} {
		w, out := do(t, f.router, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound || out["error"] != "Post not found" {
			t.Errorf("%s: %d %v", path, w.Code, out)
		}
	}
}

func TestBlogPublicList(t *testing.T) {
	f := newBlogFixture(t)
	for i := range 12 {
		category := "travel"
		if i%3 == 0 {
			category = "culture"
		}
		f.create(t, `{"title":"Post `+strconv.Itoa(i)+`","content":"Body.","category":"`+category+`","published":true}`)
	}
	f.create(t, `{"title":"Draft","content":"Body."}`)

	w, out := do(t, f.router, http.MethodGet, "/api/blog", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if posts, _ := out["posts"].([]any); len(posts) != 10 {
		t.Errorf("first page = %d posts, want 10", len(posts))
	}
	meta, _ := out["meta"].(map[string]any)
	if meta["total"] != float64(12) || meta["pageCount"] != float64(2) {
		t.Errorf("meta = %v", meta)
	}

	_, out = do(t, f.router, http.MethodGet, "/api/blog?category=culture", "")
	if posts, _ := out["posts"].([]any); len(posts) != 4 {
		t.Errorf("culture posts = %d, want 4", len(posts))
	}

	// Any write drops the cached listing.
	f.create(t, `{"title":"Fresh","content":"Body.","category":"culture","published":true}`)
	w, out = do(t, f.router, http.MethodGet, "/api/blog?category=culture", "")
	if w.Header().Get("X-Cache") != "MISS" {
		t.Error("listing served from cache after a write")
	}
	if posts, _ := out["posts"].([]any); len(posts) != 5 {
		t.Errorf("culture posts after write = %d, want 5", len(posts))
	}
}

func TestBlogStoreFailureIs500(t *testing.T) {
	f := newBlogFixture(t)
	f.posts.err = errors.New("connection reset")

	w, out := do(t, f.router, http.MethodGet, "/api/blog", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", w.Code)
	}
	if out["error"] != "Internal server error" {
		t.Errorf("error = %v, detail must not leak", out["error"])
	}
}

// fakeImages is an ImageStore over https://cdn.example.com/<key>.
type fakeImages struct {
	deleted []string
}

func (f *fakeImages) KeyFromURL(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, "https://cdn.example.com/")
	return key, ok && key != ""
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestBlogImageCleanup(t *testing.T) {
	posts := newMemBlog()
	images := &fakeImages{}
	h := NewBlog(posts, nil, "Eyob Salemot").WithImageCleanup(images)
	r := chi.NewRouter()
	r.Post("/posts", h.Create)
	r.Put("/posts/{id}", h.Update)
	r.Delete("/posts/{id}", h.Delete)

	_, out := do(t, r, http.MethodPost, "/posts",
		`{"title":"Danakil","content":"Salt flats.","featured_image":"https://cdn.example.com/blog/2026/01/a.jpg"}`)
	id, _ := out["post"].(map[string]any)["id"].(string)

	// Editing text keeps the image.
	do(t, r, http.MethodPut, "/posts/"+id, `{"content":"Lava lake."}`)
	if len(images.deleted) != 0 {
		t.Fatalf("deleted %v on a text edit", images.deleted)
	}

	// Replacing the image removes the old one.
	do(t, r, http.MethodPut, "/posts/"+id, `{"featured_image":"https://cdn.example.com/blog/2026/01/b.jpg"}`)
	// Images outside the bucket are never touched.
	do(t, r, http.MethodPut, "/posts/"+id, `{"featured_image":"https://elsewhere.example.org/c.jpg"}`)
	do(t, r, http.MethodPut, "/posts/"+id, `{"featured_image":"https://cdn.example.com/blog/2026/01/d.jpg"}`)

	if w, _ := do(t, r, http.MethodDelete, "/posts/"+id, ""); w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}

	want := []string{"blog/2026/01/a.jpg", "blog/2026/01/b.jpg", "blog/2026/01/d.jpg"}
	if len(images.deleted) != len(want) {
		t.Fatalf("deleted = %v, want %v", images.deleted, want)
	}
	for i := range want {
		if images.deleted[i] != want[i] {
			t.Errorf("deleted[%d] = %q, want %q", i, images.deleted[i], want[i])
		}
	}
}
