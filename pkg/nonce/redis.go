package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by Redis, for deployments where the callback can
// land on a different instance than the challenge. Take uses GETDEL so the
// consume is atomic across instances.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store. The client is owned by the caller;
// Close does not close it.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: "login_nonce"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithPrefix sets the key namespace (default "login_nonce").
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// Put records value under key for at most ttl.
func (r *Redis) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("nonce: redis set: %w", err)
	}
	return nil
}

// Take returns the value under key and consumes it atomically.
func (r *Redis) Take(ctx context.Context, key string) (string, error) {
	value, err := r.client.GetDel(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("nonce: redis getdel: %w", err)
	}
	return value, nil
}

// Close is a no-op; the Redis client lifecycle belongs to the caller.
func (r *Redis) Close() error {
	return nil
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}
