package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slzhly/wechatauth/pkg/redis"
)

func TestConnect_Validation(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), "")
		require.ErrorIs(t, err, redis.ErrEmptyURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), "http://not-redis")
		require.Error(t, err)
	})

	t.Run("unreachable server gives up after retries", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		start := time.Now()
		_, err := redis.Connect(ctx, "redis://127.0.0.1:1", redis.WithRetry(2, 100*time.Millisecond))
		require.Error(t, err)
		require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})
}
