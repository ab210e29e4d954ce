package database

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	admin := SeedAdmin{Username: "seed-test-admin", Email: "seed-test@example.com"}
	t.Cleanup(func() {
		db.Exec("DELETE FROM admin_users WHERE username = $1", admin.Username)
	})

	// Other packages may share this database, so nothing is truncated first.
	if err := Seed(ctx, db, admin); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db, admin); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var rows int
	db.QueryRow("SELECT COUNT(*) FROM admin_users WHERE username = $1", admin.Username).Scan(&rows)
	if rows != 1 {
		t.Errorf("admin rows = %d, want 1", rows)
	}

	var hash string
	db.QueryRow("SELECT password_hash FROM admin_users WHERE username = $1", admin.Username).Scan(&hash)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(DevAdminPassword)) != nil {
		t.Error("seeded admin does not accept the development password")
	}
}

// TestSeedPostsHaveInitialVersion checks every post has a matching
// version-log head.
func TestSeedPostsHaveInitialVersion(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := seedPosts(ctx, db, ""); err != nil {
		t.Fatalf("seedPosts: %v", err)
	}

	var mismatched int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM blog_posts p
		WHERE p.version <> (SELECT MAX(v.version) FROM blog_post_versions v WHERE v.post_id = p.id)
	`).Scan(&mismatched)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if mismatched != 0 {
		t.Errorf("%d posts whose version differs from the latest snapshot", mismatched)
	}
}
