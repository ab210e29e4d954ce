// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"tourfolio/internal/models"
)

// DevAdminPassword is used when no password hash is configured outside
// production. Config refuses to start production without a hash.
const DevAdminPassword = "admin123"

// SeedAdmin describes the singleton operator row.
type SeedAdmin struct {
	Username     string
	Email        string
	PasswordHash string
}

// samplePost is a starter article inserted on first run.
type samplePost struct {
	Title, Slug, Excerpt, Content, Category string
	Tags                                    []string
}

var samplePosts = []samplePost{
	{
		Title:    "Discovering Ethiopia's Hidden Gems: A Guide to Addis Ababa's Historical Sites",
		Slug:     "discovering-ethiopia-hidden-gems",
		Excerpt:  "Explore the rich history and cultural heritage of Ethiopia through Addis Ababa's most significant historical landmarks.",
		Category: "Tourism",
		Tags:     []string{"Ethiopia", "Tourism", "History", "Addis Ababa", "Culture"},
		Content: `Ethiopia, often called the "Cradle of Humanity," is home to some of the world's most fascinating historical sites.

## The Grand Palace (Menelik Palace)

Built during the reign of Emperor Menelik II, the palace offers a glimpse into the royal lifestyle of Ethiopian emperors.

## Adwa Victory Museum

The museum commemorates the Battle of Adwa in 1896, one of Africa's most significant military victories.

## Planning Your Visit

**Best Time to Visit**: Early morning (9 AM - 12 PM) for cooler temperatures and better light.

**Duration**: Allow 4-6 hours for both sites.`,
	},
	{
		Title:    "The Art of Ethiopian Coffee: From Bean to Cup",
		Slug:     "art-of-ethiopian-coffee",
		Excerpt:  "Discover the birthplace of coffee and learn about Ethiopia's rich coffee culture and traditional brewing ceremonies.",
		Category: "Culture",
		Tags:     []string{"Coffee", "Ethiopia", "Culture", "Tradition", "Agriculture"},
		Content: `Ethiopia is widely recognized as the birthplace of coffee, and coffee culture runs through every part of daily life.

## The Legend of Kaldi

Legend tells of a goat herder who noticed his goats dancing after eating red berries from a certain shrub.

## The Coffee Ceremony

The ceremony is a social ritual of three rounds: *abol*, *tona* and *baraka*. Each round strengthens the bond between host and guests.`,
	},
	{
		Title:    "Community Development in Ethiopia: Building Sustainable Futures",
		Slug:     "community-development-ethiopia",
		Excerpt:  "Learn about grassroots community development initiatives that are transforming lives across Ethiopia.",
		Category: "Community",
		Tags:     []string{"Community Development", "Ethiopia", "Education", "Sustainability", "Social Impact"},
		Content: `Community development in Ethiopia represents hope, resilience and the power of collective action.

## Education First

Local schools built and run with community participation keep children learning close to home.

## Clean Water

Well projects reduce the daily walk for water and free time for school and work.

## How You Can Help

Responsible tourism brings income directly to the communities you visit.`,
	},
}

// Seed populates the database with the operator account and sample blog
// posts. Both steps are idempotent: existing rows are left untouched.
func Seed(ctx context.Context, db *sql.DB, admin SeedAdmin) error {
	if err := seedAdmin(ctx, db, admin); err != nil {
		return err
	}
	return seedPosts(ctx, db, admin.Username)
}

func seedAdmin(ctx context.Context, db *sql.DB, admin SeedAdmin) error {
	hash := admin.PasswordHash
	if hash == "" {
		generated, err := bcrypt.GenerateFromPassword([]byte(DevAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}
		hash = string(generated)
		slog.Warn("no admin password hash configured, using development default",
			"username", admin.Username,
			"password", DevAdminPassword,
		)
	}

	// A configured hash always wins so rotating ADMIN_PASSWORD_HASH takes
	// effect on the next start.
	res, err := db.ExecContext(ctx, `
		INSERT INTO admin_users (username, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = CASE WHEN $4 THEN EXCLUDED.password_hash
		                         ELSE admin_users.password_hash END
	`, admin.Username, admin.Email, hash, admin.PasswordHash != "")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("admin user ready", "username", admin.Username)
	}
	return nil
}

func seedPosts(ctx context.Context, db *sql.DB, author string) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blog_posts").Scan(&count); err != nil {
		return fmt.Errorf("seed check posts: %w", err)
	}
	if count > 0 {
		slog.Info("blog already seeded, skipping")
		return nil
	}

	if author == "" || author == "admin" {
		author = models.DefaultSiteSettings().SiteName
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range samplePosts {
		var id string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO blog_posts (title, slug, excerpt, content, author, category, tags, published, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, 1)
			RETURNING id
		`, p.Title, p.Slug, p.Excerpt, p.Content, author, p.Category, p.Tags).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert post %s: %w", p.Slug, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO blog_post_versions (post_id, version, title, content, excerpt, author, change_summary)
			VALUES ($1, 1, $2, $3, $4, $5, $6)
		`, id, p.Title, p.Content, p.Excerpt, author, models.SummaryInitial)
		if err != nil {
			return fmt.Errorf("seed insert version %s: %w", p.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample blog posts", "count", len(samplePosts))
	return nil
}
