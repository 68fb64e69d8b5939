package nonce

import (
	"context"
	"errors"
	"time"
)

// Errors.
var (
	// ErrNotFound is returned when a key is absent, already consumed, or expired.
	ErrNotFound = errors.New("nonce: not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("nonce: store closed")
)

// Store persists correlation nonces between challenge and callback.
//
// Implementations must make Take consume: after a successful Take the key is
// gone, and a second Take returns ErrNotFound.
type Store interface {
	// Put records value under key for at most ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Take returns the value stored under key and removes it.
	Take(ctx context.Context, key string) (string, error)

	// Close releases backend resources.
	Close() error
}
