// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tourfolio/internal/models"
)

// postColumns lists all columns for blog_posts SELECTs.
const postColumns = `id, title, slug, excerpt, content, author, category, tags,
	featured_image, published, version, created_at, updated_at`

// versionColumns lists all columns for blog_post_versions SELECTs.
const versionColumns = `id, post_id, version, title, content, excerpt, author,
	change_summary, created_at`

const (
	slugConstraint    = "blog_posts_slug_key"
	versionConstraint = "blog_post_versions_post_id_version_key"
)

// BlogStore is the blog versioning engine. Every write to a post appends
// an immutable snapshot to blog_post_versions in the same transaction, so
// blog_posts.version always equals the newest snapshot's version.
type BlogStore struct {
	db *sql.DB
}

// NewBlogStore creates a new BlogStore backed by the given database.
func NewBlogStore(db *sql.DB) *BlogStore {
	return &BlogStore{db: db}
}

func scanPost(row scanner) (*models.BlogPost, error) {
	var p models.BlogPost
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Author, &p.Category,
		typeMap.SQLScanner(&p.Tags), &p.FeaturedImage, &p.Published, &p.Version,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func scanVersion(row scanner) (*models.BlogPostVersion, error) {
	var v models.BlogPostVersion
	err := row.Scan(
		&v.ID, &v.PostID, &v.Version, &v.Title, &v.Content, &v.Excerpt, &v.Author,
		&v.ChangeSummary, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a post at version 1 together with its "Initial version"
// snapshot.
func (s *BlogStore) Create(ctx context.Context, post *models.BlogPost) (*models.BlogPost, error) {
	var created *models.BlogPost
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO blog_posts (title, slug, excerpt, content, author, category,
			                        tags, featured_image, published, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
			RETURNING `+postColumns,
			post.Title, post.Slug, post.Excerpt, post.Content, post.Author, post.Category,
			tags, post.FeaturedImage, post.Published,
		)
		p, err := scanPost(row)
		if err != nil {
			if isUniqueViolation(err, slugConstraint) {
				return ErrSlugTaken
			}
			return fmt.Errorf("insert blog post: %w", err)
		}

		if err := insertVersion(ctx, tx, p.Snapshot(models.SummaryInitial)); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update merges patch into the current post and appends a new snapshot.
// An empty summary is recorded as "Updated post". When expectedVersion is
// non-nil it must match the stored version or ErrVersionConflict is
// returned and nothing is written.
func (s *BlogStore) Update(ctx context.Context, id uuid.UUID, patch models.BlogPostPatch, summary string, expectedVersion *int) (*models.BlogPost, error) {
	if summary == "" {
		summary = models.SummaryUpdated
	}

	var updated *models.BlogPost
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := applyUpdate(ctx, tx, id, patch, summary, expectedVersion)
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RestoreVersion copies the title, content and excerpt of the given snapshot
// back onto the post as a new version. Every other field keeps its current
// value. History is never rewritten:
// restoring version K of a post at version N produces version N+1.
func (s *BlogStore) RestoreVersion(ctx context.Context, postID uuid.UUID, version int, expectedVersion *int) (*models.BlogPost, error) {
	var restored *models.BlogPost
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		snap, err := findVersion(ctx, tx, postID, version)
		if err != nil {
			return err
		}

		patch := models.BlogPostPatch{
			Title:   &snap.Title,
			Content: &snap.Content,
			Excerpt: &snap.Excerpt,
		}
		summary := fmt.Sprintf("Restored to version %d", version)

		p, err := applyUpdate(ctx, tx, postID, patch, summary, expectedVersion)
		restored = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// applyUpdate is the shared write path for Update and RestoreVersion. The
// UPDATE is conditional on the version read here, so a concurrent writer
// that committed first turns this call into ErrVersionConflict.
func applyUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID, patch models.BlogPostPatch, summary string, expectedVersion *int) (*models.BlogPost, error) {
	current, err := scanPost(tx.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blog post: %w", err)
	}

	if expectedVersion != nil && *expectedVersion != current.Version {
		return nil, ErrVersionConflict
	}

	merged := patch.Apply(*current)
	merged.Version = current.Version + 1
	if merged.Tags == nil {
		merged.Tags = []string{}
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE blog_posts SET
			title = $1, slug = $2, excerpt = $3, content = $4, author = $5,
			category = $6, tags = $7, featured_image = $8, published = $9,
			version = $10, updated_at = NOW()
		WHERE id = $11 AND version = $12
		RETURNING `+postColumns,
		merged.Title, merged.Slug, merged.Excerpt, merged.Content, merged.Author,
		merged.Category, merged.Tags, merged.FeaturedImage, merged.Published,
		merged.Version, id, current.Version,
	)
	updated, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		if isUniqueViolation(err, slugConstraint) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update blog post: %w", err)
	}

	if err := insertVersion(ctx, tx, updated.Snapshot(summary)); err != nil {
		return nil, err
	}
	return updated, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, v models.BlogPostVersion) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO blog_post_versions (post_id, version, title, content, excerpt, author, change_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.PostID, v.Version, v.Title, v.Content, v.Excerpt, v.Author, v.ChangeSummary)
	if isUniqueViolation(err, versionConstraint) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("insert blog post version: %w", err)
	}
	return nil
}

// Delete removes a post and its entire version log. Nothing is deleted
// when the post does not exist.
func (s *BlogStore) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_post_versions WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("delete blog post versions: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete blog post: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete blog post rows: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FindByID returns a post regardless of its published state.
func (s *BlogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find blog post by id: %w", err)
	}
	return p, nil
}

// FindPublishedBySlug returns a published post for the public site.
func (s *BlogStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE slug = $1 AND published = TRUE`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find blog post by slug: %w", err)
	}
	return p, nil
}

// List returns every post, published and draft, newest first.
func (s *BlogStore) List(ctx context.Context) ([]models.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	return collectPosts(rows)
}

// ListPublished returns one page of published posts, newest first, and the
// total number of matching posts. An empty category matches all.
func (s *BlogStore) ListPublished(ctx context.Context, category string, page Page) ([]models.BlogPost, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM blog_posts
		WHERE published = TRUE AND ($1 = '' OR category = $1)
	`, category).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count published posts: %w", err)
	}

	limit, offset := page.limitOffset()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM blog_posts
		WHERE published = TRUE AND ($1 = '' OR category = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, category, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list published posts: %w", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func collectPosts(rows *sql.Rows) ([]models.BlogPost, error) {
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// ListVersions returns the version log of a post, newest first.
func (s *BlogStore) ListVersions(ctx context.Context, postID uuid.UUID) ([]models.BlogPostVersion, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blog_posts WHERE id = $1)`, postID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check blog post: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM blog_post_versions
		WHERE post_id = $1
		ORDER BY version DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list blog post versions: %w", err)
	}
	defer rows.Close()

	versions := []models.BlogPostVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog post version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// FindVersion returns a single snapshot of a post.
func (s *BlogStore) FindVersion(ctx context.Context, postID uuid.UUID, version int) (*models.BlogPostVersion, error) {
	return findVersion(ctx, s.db, postID, version)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findVersion(ctx context.Context, q queryer, postID uuid.UUID, version int) (*models.BlogPostVersion, error) {
	v, err := scanVersion(q.QueryRowContext(ctx, `
		SELECT `+versionColumns+` FROM blog_post_versions
		WHERE post_id = $1 AND version = $2
	`, postID, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find blog post version: %w", err)
	}
	return v, nil
}
