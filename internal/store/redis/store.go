// Package redis keeps shared, expiring state in Redis: resolved thumbnails
// and per-owner collection snapshots.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultThumbnailTTL keeps a resolved preview for a week.
	DefaultThumbnailTTL = 7 * 24 * time.Hour
	// DefaultCollectionTTL bounds how stale a snapshot may be if an
	// invalidation is lost.
	DefaultCollectionTTL = 10 * time.Minute
)

// Store wraps a connected client.
type Store struct {
	client        *redis.Client
	thumbnailTTL  time.Duration
	collectionTTL time.Duration
}

// NewStore creates a Redis store. Zero TTLs fall back to the defaults.
func NewStore(client *redis.Client, thumbnailTTL, collectionTTL time.Duration) *Store {
	if thumbnailTTL <= 0 {
		thumbnailTTL = DefaultThumbnailTTL
	}
	if collectionTTL <= 0 {
		collectionTTL = DefaultCollectionTTL
	}
	return &Store{
		client:        client,
		thumbnailTTL:  thumbnailTTL,
		collectionTTL: collectionTTL,
	}
}

// Ping checks the connection, used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
