package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// ErrMiss is returned by a Store when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store holds serialized values with a time-to-live
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore is a Store backed by a Redis server
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at addr
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
	}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Memoize returns the cached result for key, or calls fn and caches its result
func Memoize[T any](ctx context.Context, store Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var result T

	// Try fetching from cache
	if cached, err := store.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(cached, &result); jsonErr == nil {
			return result, nil
		}
	}

	return Refresh(ctx, store, key, ttl, fn)
}

// Refresh calls fn unconditionally and overwrites the cached result for key
func Refresh[T any](ctx context.Context, store Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err != nil {
		return result, err
	}

	// A failed write only costs a future cache hit
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("result not cacheable")
		return result, nil
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return result, nil
}
