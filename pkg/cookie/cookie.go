package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// Errors.
var (
	ErrNotFound = errors.New("cookie: not found")
	ErrNoSecret = errors.New("cookie: secret required")
	ErrBadSig   = errors.New("cookie: invalid signature")
)

// Manager writes and reads cookies with shared attribute defaults.
type Manager struct {
	secret   []byte // nil = signing unavailable
	domain   string
	path     string
	secure   bool
	httpOnly bool
	sameSite http.SameSite
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a Manager. Defaults: path "/", HttpOnly, SameSite=Lax.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithSecret enables signed cookies. Secrets shorter than 32 bytes are
// ignored, leaving signing unavailable.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if len(secret) >= 32 {
			m.secret = []byte(secret)
		}
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) { m.domain = domain }
}

// WithPath sets the cookie path.
func WithPath(path string) Option {
	return func(m *Manager) { m.path = path }
}

// WithSecure sets the Secure flag. Enable it in production: the login
// callback must arrive over HTTPS anyway.
func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithSameSite sets the SameSite attribute. The correlation cookie must
// survive a cross-site redirect from the provider, so Lax (the default) is
// the strictest mode that works.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) { m.sameSite = ss }
}

// Get returns a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie. maxAge follows http.Cookie semantics
// (seconds; 0 = session cookie).
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.cookie(name, value, maxAge))
}

// Delete expires a cookie immediately.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

// SetSigned writes value together with its HMAC-SHA256 signature, encoded
// as base64(value).base64(signature).
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if m.secret == nil {
		return ErrNoSecret
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(value))

	encoded := base64.RawURLEncoding.EncodeToString([]byte(value)) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	http.SetCookie(w, m.cookie(name, encoded, maxAge))
	return nil
}

// GetSigned returns a signed cookie value after verifying its signature.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if m.secret == nil {
		return "", ErrNoSecret
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	value, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", ErrBadSig
	}
	gotSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrBadSig
	}

	mac := hmac.New(sha256.New, m.secret)
	mac.Write(decoded)
	if !hmac.Equal(gotSig, mac.Sum(nil)) {
		return "", ErrBadSig
	}

	return string(decoded), nil
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}
