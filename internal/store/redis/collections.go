package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// SaveCollection snapshots an owner's collection.
func (s *Store) SaveCollection(ctx context.Context, owner string, c *domain.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	if err := s.client.Set(ctx, CollectionKey(owner), data, s.collectionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// LoadCollection returns the owner's snapshot, or (nil, nil) when there is none.
func (s *Store) LoadCollection(ctx context.Context, owner string) (*domain.Collection, error) {
	data, err := s.client.Get(ctx, CollectionKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	var c domain.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collection: %w", err)
	}
	return &c, nil
}

// InvalidateCollection drops the owner's snapshot.
func (s *Store) InvalidateCollection(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, CollectionKey(owner)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate collection: %w", err)
	}
	return nil
}
