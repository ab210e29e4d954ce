// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tourfolio/internal/database"
	"tourfolio/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "tourfolio")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "tourfolio")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Reset goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// newTestPost creates a draft post with a unique slug and removes it when
// the test finishes.
func newTestPost(t *testing.T, db *sql.DB) *models.BlogPost {
	t.Helper()

	s := NewBlogStore(db)
	slug := "test-post-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	post, err := s.Create(context.Background(), &models.BlogPost{
		Title:    "Original Title",
		Slug:     slug,
		Excerpt:  "Original excerpt",
		Content:  "Original content",
		Author:   "Eyob Salemot",
		Category: "Tourism",
		Tags:     []string{"ethiopia", "travel"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return post
}

// cleanPosts removes test posts by slug. Versions cascade.
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM blog_posts WHERE slug = $1", slug)
	}
}

// cleanBookings removes test bookings by reference.
func cleanBookings(t *testing.T, db *sql.DB, refs ...string) {
	t.Helper()
	for _, ref := range refs {
		db.Exec("DELETE FROM bookings WHERE reference = $1", ref)
	}
}

// cleanAdmins removes test operator rows by username.
func cleanAdmins(t *testing.T, db *sql.DB, usernames ...string) {
	t.Helper()
	for _, name := range usernames {
		db.Exec("DELETE FROM admin_users WHERE username = $1", name)
	}
}

func ptr[T any](v T) *T { return &v }
