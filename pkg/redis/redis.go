// Package redis connects to Redis from a URL with startup retries and
// exposes a readiness check for the health endpoints.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyURL is returned by Connect when no URL is given.
var ErrEmptyURL = errors.New("redis: connection URL required")

// Option configures Connect.
type Option func(*config)

type config struct {
	attempts int
	interval time.Duration
}

// WithRetry sets how many connection attempts to make at startup and the
// pause between them. Defaults to 3 attempts 2 seconds apart.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(c *config) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if interval > 0 {
			c.interval = interval
		}
	}
}

// Connect parses a redis:// or rediss:// URL, dials the server, and verifies
// it answers before returning the client. Transient startup failures are
// retried; ctx cancels the whole attempt.
func Connect(ctx context.Context, url string, opts ...Option) (*redis.Client, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	cfg := &config{attempts: 3, interval: 2 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)

	for attempt := 1; ; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		if attempt >= cfg.attempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.interval):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis: connect after %d attempts: %w", cfg.attempts, err)
}

// Healthcheck returns a readiness probe for the given client.
func Healthcheck(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
