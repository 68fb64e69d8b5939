package handshake

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/slzhly/wechatauth/pkg/cookie"
	"github.com/slzhly/wechatauth/pkg/nonce"
)

// CorrelationItemKey is the properties item holding the CSRF nonce. It is
// written at challenge time and travels inside the protected state.
const CorrelationItemKey = "login_correlation_id"

// ErrCorrelationFailed is returned by a Correlator when the callback cannot
// be tied to a challenge issued here.
var ErrCorrelationFailed = errors.New("handshake: correlation failed")

// Correlator records the correlation nonce at challenge time and confirms it
// at callback time. Confirm consumes the recorded value: a second callback
// for the same challenge cannot correlate again.
type Correlator interface {
	Remember(w http.ResponseWriter, r *http.Request, id string) error
	Confirm(w http.ResponseWriter, r *http.Request, id string) error
}

// DefaultCorrelationTTL bounds how long a challenge stays confirmable,
// matching the state codec's default maximum age.
const DefaultCorrelationTTL = 15 * time.Minute

// CookieCorrelator stores the nonce in a signed cookie on the user's
// browser. Works without server-side storage; needs the callback to land on
// the same browser that started the challenge, which is exactly the CSRF
// property being checked.
type CookieCorrelator struct {
	cookies *cookie.Manager
	name    string
	maxAge  int
}

// NewCookieCorrelator builds a cookie-backed Correlator. The manager must
// have a signing secret configured.
func NewCookieCorrelator(m *cookie.Manager, ttl time.Duration) *CookieCorrelator {
	if ttl <= 0 {
		ttl = DefaultCorrelationTTL
	}
	return &CookieCorrelator{
		cookies: m,
		name:    "login_correlation",
		maxAge:  int(ttl.Seconds()),
	}
}

// Remember writes the signed correlation cookie.
func (c *CookieCorrelator) Remember(w http.ResponseWriter, _ *http.Request, id string) error {
	return c.cookies.SetSigned(w, c.name, id, c.maxAge)
}

// Confirm verifies the returning cookie against the state's nonce and
// deletes the cookie either way.
func (c *CookieCorrelator) Confirm(w http.ResponseWriter, r *http.Request, id string) error {
	got, err := c.cookies.GetSigned(r, c.name)
	c.cookies.Delete(w, c.name)
	if err != nil {
		return errors.Join(ErrCorrelationFailed, err)
	}
	if id == "" || subtle.ConstantTimeCompare([]byte(got), []byte(id)) != 1 {
		return ErrCorrelationFailed
	}
	return nil
}

// StoreCorrelator keeps the nonce server-side in a [nonce.Store], keyed by
// the nonce itself. Use it when cookies are unavailable or when callbacks
// may land on another instance (with the Redis store).
type StoreCorrelator struct {
	store nonce.Store
	ttl   time.Duration
}

// NewStoreCorrelator builds a store-backed Correlator.
func NewStoreCorrelator(s nonce.Store, ttl time.Duration) *StoreCorrelator {
	if ttl <= 0 {
		ttl = DefaultCorrelationTTL
	}
	return &StoreCorrelator{store: s, ttl: ttl}
}

// Remember records the nonce server-side.
func (c *StoreCorrelator) Remember(_ http.ResponseWriter, r *http.Request, id string) error {
	return c.store.Put(r.Context(), id, id, c.ttl)
}

// Confirm consumes the recorded nonce; absence means the challenge never
// happened here, already completed, or expired.
func (c *StoreCorrelator) Confirm(_ http.ResponseWriter, r *http.Request, id string) error {
	if id == "" {
		return ErrCorrelationFailed
	}
	got, err := c.store.Take(r.Context(), id)
	if err != nil {
		return errors.Join(ErrCorrelationFailed, err)
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(id)) != 1 {
		return ErrCorrelationFailed
	}
	return nil
}
