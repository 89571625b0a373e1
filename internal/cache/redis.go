package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by RedisStore.
const DefaultPrefix = "lplab:report:"

// RedisStore keeps entries in Redis as plain string values.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on a new client for opts. Keys are written
// as prefix+key; an empty prefix uses DefaultPrefix. A zero ttl keeps
// entries until they are deleted.
func NewRedisStore(opts *redis.Options, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{
		rdb:    redis.NewClient(opts),
		prefix: prefix,
		ttl:    ttl,
	}
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Key returns the Redis key for key.
func (s *RedisStore) Key(key string) string {
	return s.prefix + key
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q from Redis: %w", key, err)
	}
	return value, nil
}

// Put stores value under key with the store's TTL.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.Key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %q to Redis: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	n, err := s.rdb.Del(ctx, s.Key(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %q from Redis: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", key, ErrNotFound)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
