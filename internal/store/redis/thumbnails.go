package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ThumbnailCache adapts the store to the thumbnail resolver's cache, so
// previews survive restarts and are shared between replicas.
type ThumbnailCache struct {
	s *Store
}

// Thumbnails returns the store's thumbnail cache view.
func (s *Store) Thumbnails() *ThumbnailCache {
	return &ThumbnailCache{s: s}
}

// Get returns the cached preview for sourceURL. A miss is not an error.
func (c *ThumbnailCache) Get(ctx context.Context, sourceURL string) (string, bool, error) {
	v, err := c.s.client.Get(ctx, ThumbnailKey(sourceURL)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached thumbnail: %w", err)
	}
	return v, true, nil
}

// Set stores a resolved preview.
func (c *ThumbnailCache) Set(ctx context.Context, sourceURL, thumbnailURL string) error {
	if err := c.s.client.Set(ctx, ThumbnailKey(sourceURL), thumbnailURL, c.s.thumbnailTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache thumbnail: %w", err)
	}
	return nil
}

// Invalidate drops the preview for sourceURL.
func (c *ThumbnailCache) Invalidate(ctx context.Context, sourceURL string) error {
	if err := c.s.client.Del(ctx, ThumbnailKey(sourceURL)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate thumbnail: %w", err)
	}
	return nil
}

// FlushThumbnails removes every cached preview and reports how many.
func (s *Store) FlushThumbnails(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixThumbnail+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return n, fmt.Errorf("failed to delete thumbnail key: %w", err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("failed to flush thumbnails: %w", err)
	}
	return n, nil
}
