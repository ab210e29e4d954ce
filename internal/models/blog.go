// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Default change summaries written to the version log.
const (
	SummaryInitial = "Initial version"
	SummaryUpdated = "Updated post"
)

// BlogPost is the live state of a blog article. Version always equals the
// highest version recorded in the post's version log.
type BlogPost struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       string    `json:"excerpt"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	FeaturedImage *string   `json:"featured_image,omitempty"`
	Published     bool      `json:"published"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BlogPostVersion is an immutable snapshot in a post's version log.
type BlogPostVersion struct {
	ID            uuid.UUID `json:"id"`
	PostID        uuid.UUID `json:"post_id"`
	Version       int       `json:"version"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Author        string    `json:"author"`
	ChangeSummary string    `json:"change_summary"`
	CreatedAt     time.Time `json:"created_at"`
}

// BlogPostPatch carries a partial update. Nil fields keep their current value.
type BlogPostPatch struct {
	Title         *string   `json:"title,omitempty"`
	Slug          *string   `json:"slug,omitempty"`
	Excerpt       *string   `json:"excerpt,omitempty"`
	Content       *string   `json:"content,omitempty"`
	Author        *string   `json:"author,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	FeaturedImage *string   `json:"featured_image,omitempty"`
	Published     *bool     `json:"published,omitempty"`
}

// Apply merges the patch onto a copy of post and returns it.
func (p BlogPostPatch) Apply(post BlogPost) BlogPost {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Slug != nil {
		post.Slug = *p.Slug
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Author != nil {
		post.Author = *p.Author
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Tags != nil {
		post.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.FeaturedImage != nil {
		if *p.FeaturedImage == "" {
			post.FeaturedImage = nil
		} else {
			img := *p.FeaturedImage
			post.FeaturedImage = &img
		}
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
	return post
}

// Snapshot builds the version-log entry describing post's current content.
func (b *BlogPost) Snapshot(summary string) BlogPostVersion {
	return BlogPostVersion{
		PostID:        b.ID,
		Version:       b.Version,
		Title:         b.Title,
		Content:       b.Content,
		Excerpt:       b.Excerpt,
		Author:        b.Author,
		ChangeSummary: summary,
	}
}
