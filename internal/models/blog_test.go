package models

import "testing"

func TestBlogPostPatchApply(t *testing.T) {
	img := "https://cdn.example.com/a.jpg"
	post := BlogPost{
		Title:         "Gondar",
		Author:        "Eyob Salemot",
		Tags:          []string{"castles", "history"},
		FeaturedImage: &img,
	}

	t.Run("empty tags clear to a non-nil slice", func(t *testing.T) {
		got := BlogPostPatch{Tags: &[]string{}}.Apply(post)
		if got.Tags == nil || len(got.Tags) != 0 {
			t.Errorf("tags = %#v, want []string{}", got.Tags)
		}
	})

	t.Run("tags are copied", func(t *testing.T) {
		tags := []string{"fasil"}
		got := BlogPostPatch{Tags: &tags}.Apply(post)
		tags[0] = "changed"
		if got.Tags[0] != "fasil" {
			t.Errorf("tags share the patch's backing array: %v", got.Tags)
		}
	})

	t.Run("absent fields are kept", func(t *testing.T) {
		title := "Gondar Castles"
		got := BlogPostPatch{Title: &title}.Apply(post)
		if got.Title != title || got.Author != post.Author || len(got.Tags) != 2 || got.FeaturedImage == nil {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("empty featured image clears it", func(t *testing.T) {
		empty := ""
		if got := (BlogPostPatch{FeaturedImage: &empty}).Apply(post); got.FeaturedImage != nil {
			t.Errorf("featured image = %q, want nil", *got.FeaturedImage)
		}
	})
}
