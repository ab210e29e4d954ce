// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blogKeyPrefix = "blog:"

	// DefaultBlogTTL bounds how stale a cached public blog response can get
	// if an invalidation is ever missed.
	DefaultBlogTTL = 5 * time.Minute
)

// BlogCache stores the JSON bodies of the public blog endpoints. Cache
// errors are logged and treated as misses so Valkey outages only cost
// latency.
type BlogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBlogCache creates a blog cache backed by client. A zero ttl selects
// DefaultBlogTTL.
func NewBlogCache(client *redis.Client, ttl time.Duration) *BlogCache {
	if ttl <= 0 {
		ttl = DefaultBlogTTL
	}
	return &BlogCache{client: client, ttl: ttl}
}

// PostKey is the cache key of a published post.
func PostKey(slug string) string {
	return "post:" + slug
}

// ListKey is the cache key of one page of the published post list.
func ListKey(category string, page, size int) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("list:%s:%d:%d", category, page, size)
}

// Get returns the cached body for key.
func (c *BlogCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, blogKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("blog cache get error", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores body under key with the cache TTL.
func (c *BlogCache) Set(ctx context.Context, key string, body []byte) {
	if err := c.client.Set(ctx, blogKeyPrefix+key, body, c.ttl).Err(); err != nil {
		slog.Warn("blog cache set error", "key", key, "error", err)
	}
}

// Invalidate drops every cached blog response. Any post write can change
// list pages as well as the post itself, so the whole prefix goes.
func (c *BlogCache) Invalidate(ctx context.Context) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, blogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("blog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("blog cache delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("blog cache invalidated", "deleted", deleted)
}
