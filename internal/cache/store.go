// Package cache wraps Redis for JSON list caching and conversation fan-out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches JSON-encoded values in Redis.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a new Store.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// GetJSON decodes the value at key into dst. It reports false on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key for ttl.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.rdb.Del(ctx, keys...).Err()
}
