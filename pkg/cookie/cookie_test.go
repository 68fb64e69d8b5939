package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slzhly/wechatauth/pkg/cookie"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func requestWithCookies(t *testing.T, w *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestManager_PlainCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		m.Set(w, "name", "value", 60)

		got, err := m.Get(requestWithCookies(t, w), "name")
		require.NoError(t, err)
		require.Equal(t, "value", got)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		_, err := m.Get(r, "absent")
		require.ErrorIs(t, err, cookie.ErrNotFound)
	})

	t.Run("delete expires immediately", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		m.Delete(w, "name")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, -1, cookies[0].MaxAge)
		require.Empty(t, cookies[0].Value)
	})
}

func TestManager_SignedCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "corr", "nonce-123", 900))

		got, err := m.GetSigned(requestWithCookies(t, w), "corr")
		require.NoError(t, err)
		require.Equal(t, "nonce-123", got)
	})

	t.Run("tampered value rejected", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "corr", "nonce-123", 900))

		c := w.Result().Cookies()[0]
		value, sig, ok := strings.Cut(c.Value, ".")
		require.True(t, ok)

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "corr", Value: value + "x." + sig})

		_, err := m.GetSigned(r, "corr")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("unsigned value rejected", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "corr", Value: "no-signature-here"})

		_, err := m.GetSigned(r, "corr")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("different secret rejected", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "corr", "nonce-123", 900))

		other := cookie.New(cookie.WithSecret("ffffffffffffffffffffffffffffffff"))
		_, err := other.GetSigned(requestWithCookies(t, w), "corr")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})
}

func TestManager_NoSecret(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	w := httptest.NewRecorder()

	require.ErrorIs(t, m.SetSigned(w, "n", "v", 0), cookie.ErrNoSecret)
	_, err := m.GetSigned(httptest.NewRequest("GET", "/", nil), "n")
	require.ErrorIs(t, err, cookie.ErrNoSecret)

	// Short secrets are ignored rather than used.
	short := cookie.New(cookie.WithSecret("short"))
	require.ErrorIs(t, short.SetSigned(w, "n", "v", 0), cookie.ErrNoSecret)
}

func TestManager_Attributes(t *testing.T) {
	t.Parallel()

	m := cookie.New(
		cookie.WithDomain("example.com"),
		cookie.WithPath("/auth"),
		cookie.WithSecure(true),
		cookie.WithSameSite(http.SameSiteStrictMode),
	)

	w := httptest.NewRecorder()
	m.Set(w, "name", "value", 30)

	c := w.Result().Cookies()[0]
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, "/auth", c.Path)
	require.True(t, c.Secure)
	require.True(t, c.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	require.Equal(t, 30, c.MaxAge)
}
