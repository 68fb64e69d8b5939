package authstate

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Errors.
var (
	ErrBadSecret    = errors.New("authstate: secret must be 32+ bytes")
	ErrInvalidState = errors.New("authstate: state is missing or invalid")
	ErrStateExpired = errors.New("authstate: state has expired")
)

// DefaultMaxAge bounds how long a protected blob stays decodable. A login
// redirect round-trip completes in seconds; fifteen minutes leaves room for
// a user idling on the provider's consent page.
const DefaultMaxAge = 15 * time.Minute

// Codec encrypts and decrypts handshake [Properties].
//
// Key material is fixed at construction; a Codec is safe for concurrent use.
type Codec struct {
	key    [32]byte
	maxAge time.Duration
	now    func() time.Time
}

// Option configures the Codec.
type Option func(*Codec)

// WithMaxAge sets the maximum accepted blob age. Zero disables the check.
func WithMaxAge(d time.Duration) Option {
	return func(c *Codec) {
		c.maxAge = d
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Codec. The secret must be at least 32 bytes; it is run
// through SHA-256 to derive the AES-256 key, so any high-entropy string works.
func New(secret string, opts ...Option) (*Codec, error) {
	if len(secret) < 32 {
		return nil, ErrBadSecret
	}

	c := &Codec{
		key:    sha256.Sum256([]byte(secret)),
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the encrypted plaintext layout. The issue timestamp travels
// inside the ciphertext so it is covered by the integrity check.
type envelope struct {
	IssuedAt   int64      `json:"iat"`
	Properties Properties `json:"props"`
}

// Protect encrypts props into an opaque URL-safe string.
func (c *Codec) Protect(props Properties) (string, error) {
	plaintext, err := json.Marshal(envelope{
		IssuedAt:   c.now().Unix(),
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("authstate: encode properties: %w", err)
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("authstate: generate nonce: %w", err)
	}

	// Layout: nonce || ciphertext+tag, base64url without padding so the
	// blob survives a query parameter unmangled.
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unprotect decrypts and validates a blob produced by Protect.
//
// Any structural defect, failed integrity check, or decode error yields
// ErrInvalidState; a valid blob older than the configured maximum age yields
// ErrStateExpired. Partial properties are never returned.
func (c *Codec) Unprotect(blob string) (Properties, error) {
	if blob == "" {
		return Properties{}, ErrInvalidState
	}

	sealed, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return Properties{}, ErrInvalidState
	}

	gcm, err := c.aead()
	if err != nil {
		return Properties{}, err
	}

	if len(sealed) < gcm.NonceSize() {
		return Properties{}, ErrInvalidState
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Properties{}, ErrInvalidState
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return Properties{}, ErrInvalidState
	}

	if c.maxAge > 0 {
		issued := time.Unix(env.IssuedAt, 0)
		if c.now().Sub(issued) > c.maxAge {
			return Properties{}, ErrStateExpired
		}
	}

	return env.Properties, nil
}

func (c *Codec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("authstate: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("authstate: init gcm: %w", err)
	}
	return gcm, nil
}
