package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedMarker = "revoked"

// RevocationRepository records revoked tokens in Redis with a per-key expiry.
type RevocationRepository struct {
	client redis.Cmdable
}

// NewRevocationRepository constructs the repository.
func NewRevocationRepository(client redis.Cmdable) *RevocationRepository {
	return &RevocationRepository{client: client}
}

// Put marks key as revoked for ttl. Non-positive TTLs are ignored.
func (r *RevocationRepository) Put(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key, revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is currently revoked.
func (r *RevocationRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}
