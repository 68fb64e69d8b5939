package handshake_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/slzhly/wechatauth/pkg/authstate"
	"github.com/slzhly/wechatauth/pkg/handshake"
	"github.com/slzhly/wechatauth/pkg/nonce"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubProvider struct {
	exchange func(ctx context.Context, code, redirectURI string) (*oauth2.Token, map[string]any, error)
	profile  func(ctx context.Context, openID, accessToken string) (map[string]any, error)

	exchangeCalls int
	profileCalls  int
	lastRedirect  string
}

var _ handshake.Provider = (*stubProvider)(nil)

func (s *stubProvider) Name() string { return "wechat" }

func (s *stubProvider) BuildAuthorizationURL(_ *http.Request, redirectURI, state string) string {
	s.lastRedirect = redirectURI
	return "https://id.example.com/authorize?redirect_uri=" + url.QueryEscape(redirectURI) + "&state=" + state
}

func (s *stubProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, map[string]any, error) {
	s.exchangeCalls++
	if s.exchange == nil {
		return nil, nil, errors.New("unexpected exchange call")
	}
	return s.exchange(ctx, code, redirectURI)
}

func (s *stubProvider) FetchProfile(ctx context.Context, openID, accessToken string) (map[string]any, error) {
	s.profileCalls++
	if s.profile == nil {
		return nil, errors.New("unexpected profile call")
	}
	return s.profile(ctx, openID, accessToken)
}

// exchangeOK returns a fixed token and the given payload.
func exchangeOK(payload map[string]any) func(context.Context, string, string) (*oauth2.Token, map[string]any, error) {
	return func(context.Context, string, string) (*oauth2.Token, map[string]any, error) {
		token := &oauth2.Token{AccessToken: "AT-1", TokenType: "Bearer"}
		return token, payload, nil
	}
}

type tokenAbsentError struct{}

func (tokenAbsentError) Error() string      { return "response carried no access token" }
func (tokenAbsentError) TokenMissing() bool { return true }

func newHandler(t *testing.T, p handshake.Provider, opts ...handshake.HandlerOption) *handshake.Handler {
	t.Helper()

	codec, err := authstate.New(testSecret)
	require.NoError(t, err)

	store := nonce.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	h, err := handshake.New(p, codec, handshake.NewStoreCorrelator(store, time.Minute), opts...)
	require.NoError(t, err)
	return h
}

// startLogin runs a challenge and returns the state the provider would echo
// back on the callback.
func startLogin(t *testing.T, h *handshake.Handler, target string) string {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://app.example.com/account?tab=security", nil)
	require.NoError(t, h.Challenge(rec, req, authstate.Properties{RedirectURI: target}))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func doCallback(h *handshake.Handler, state, code string) handshake.Result {
	q := url.Values{"state": {state}}
	if code != "" {
		q.Set("code", code)
	}
	req := httptest.NewRequest(http.MethodGet, "http://app.example.com"+h.CallbackPath()+"?"+q.Encode(), nil)
	return h.Callback(httptest.NewRecorder(), req)
}

func TestNew(t *testing.T) {
	t.Parallel()

	codec, err := authstate.New(testSecret)
	require.NoError(t, err)
	store := nonce.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	corr := handshake.NewStoreCorrelator(store, time.Minute)

	t.Run("defaults callback path to provider name", func(t *testing.T) {
		t.Parallel()
		h, err := handshake.New(&stubProvider{}, codec, corr)
		require.NoError(t, err)
		require.Equal(t, "/signin-wechat", h.CallbackPath())
	})

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()
		_, err := handshake.New(nil, codec, corr)
		require.ErrorIs(t, err, handshake.ErrNilProvider)
	})

	t.Run("nil codec", func(t *testing.T) {
		t.Parallel()
		_, err := handshake.New(&stubProvider{}, nil, corr)
		require.ErrorIs(t, err, handshake.ErrNilCodec)
	})

	t.Run("nil correlator", func(t *testing.T) {
		t.Parallel()
		_, err := handshake.New(&stubProvider{}, codec, nil)
		require.ErrorIs(t, err, handshake.ErrNilCorrelator)
	})
}

func TestHandler_Challenge(t *testing.T) {
	t.Parallel()

	t.Run("builds redirect URI from the inbound host", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{}
		h := newHandler(t, p)
		startLogin(t, h, "/dashboard")
		require.Equal(t, "http://app.example.com/signin-wechat", p.lastRedirect)
	})

	t.Run("pinned callback URL wins", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{}
		h := newHandler(t, p, handshake.WithCallbackURL("https://edge.example.com/signin-wechat"))
		startLogin(t, h, "/dashboard")
		require.Equal(t, "https://edge.example.com/signin-wechat", p.lastRedirect)
	})

	t.Run("empty redirect defaults to the current request", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: exchangeOK(map[string]any{"openid": "OID1"})}
		h := newHandler(t, p)

		state := startLogin(t, h, "")
		res := doCallback(h, state, "ABC123")
		require.True(t, res.Succeeded())
		require.Equal(t, "/account?tab=security", res.Ticket.Properties.RedirectURI)
	})
}

func TestHandler_Callback(t *testing.T) {
	t.Parallel()

	t.Run("success without federation skips profile fetch", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: exchangeOK(map[string]any{
			"openid":       "OID1",
			"access_token": "AT-1",
			"scope":        "snsapi_login",
		})}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
		require.True(t, res.Succeeded())
		require.Equal(t, handshake.KindNone, res.Kind)
		require.Equal(t, "OID1", res.Ticket.Subject)
		require.Empty(t, res.Ticket.FederatedID)
		require.Equal(t, "wechat", res.Ticket.Scheme)
		require.Equal(t, "OID1", res.Ticket.Claims[handshake.ClaimSubject])
		require.Equal(t, "/dashboard", res.Ticket.Properties.RedirectURI)
		require.Zero(t, p.profileCalls)
	})

	t.Run("federated identity triggers profile fetch", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{
			exchange: exchangeOK(map[string]any{"openid": "OID1", "unionid": "U1"}),
			profile: func(_ context.Context, openID, accessToken string) (map[string]any, error) {
				require.Equal(t, "OID1", openID)
				require.Equal(t, "AT-1", accessToken)
				return map[string]any{
					"openid":     "OID1",
					"unionid":    "U1",
					"nickname":   "Ada",
					"headimgurl": "https://cdn.example.com/a.png",
				}, nil
			},
		}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
		require.True(t, res.Succeeded())
		require.Equal(t, "U1", res.Ticket.FederatedID)
		require.Equal(t, "Ada", res.Ticket.Claims[handshake.ClaimNickname])
		require.Equal(t, "https://cdn.example.com/a.png", res.Ticket.Claims[handshake.ClaimAvatarURL])
		require.Equal(t, 1, p.profileCalls)
	})

	t.Run("missing code means the user declined", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "")
		require.False(t, res.Succeeded())
		require.Equal(t, handshake.KindUserDeclined, res.Kind)
		require.Zero(t, p.exchangeCalls)
		require.NotNil(t, res.Properties)
		require.Equal(t, "/dashboard", res.Properties.RedirectURI)
	})

	t.Run("exchange failure", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: func(context.Context, string, string) (*oauth2.Token, map[string]any, error) {
			return nil, nil, errors.New("40029: invalid code")
		}}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
		require.Equal(t, handshake.KindProviderError, res.Kind)
		require.Contains(t, res.Reason, "40029")
	})

	t.Run("success body without a token", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: func(context.Context, string, string) (*oauth2.Token, map[string]any, error) {
			return nil, nil, tokenAbsentError{}
		}}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
		require.Equal(t, handshake.KindTokenMissing, res.Kind)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{
			exchange: exchangeOK(map[string]any{"openid": "OID1", "unionid": "U1"}),
			profile: func(context.Context, string, string) (map[string]any, error) {
				return nil, errors.New("access_token expired")
			},
		}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
		require.Equal(t, handshake.KindProfileFetchFailed, res.Kind)
	})

	t.Run("payload without a subject", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: exchangeOK(map[string]any{"access_token": "AT-1"})}
		h := newHandler(t, p)

		res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
		require.Equal(t, handshake.KindTicketFailed, res.Kind)
	})

	t.Run("invalid state", func(t *testing.T) {
		t.Parallel()
		h := newHandler(t, &stubProvider{})

		res := doCallback(h, "not-a-state", "ABC123")
		require.Equal(t, handshake.KindStateInvalid, res.Kind)
		require.Nil(t, res.Properties)
	})

	t.Run("replayed callback fails correlation", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: exchangeOK(map[string]any{"openid": "OID1"})}
		h := newHandler(t, p)

		state := startLogin(t, h, "/dashboard")
		require.True(t, doCallback(h, state, "ABC123").Succeeded())

		res := doCallback(h, state, "ABC123")
		require.Equal(t, handshake.KindCorrelationMismatch, res.Kind)
	})

	t.Run("permissive mode survives a correlation failure", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{exchange: exchangeOK(map[string]any{"openid": "OID1"})}
		h := newHandler(t, p, handshake.WithPermissiveCorrelation())

		state := startLogin(t, h, "/dashboard")
		require.True(t, doCallback(h, state, "ABC123").Succeeded())
		require.True(t, doCallback(h, state, "ABC123").Succeeded())
	})
}

func TestHandler_SaveTokens(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("CST", 8*3600))
	p := &stubProvider{exchange: func(context.Context, string, string) (*oauth2.Token, map[string]any, error) {
		token := &oauth2.Token{
			AccessToken:  "AT-1",
			RefreshToken: "RT-1",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}
		return token, map[string]any{"openid": "OID1"}, nil
	}}
	h := newHandler(t, p, handshake.WithSaveTokens())

	res := doCallback(h, startLogin(t, h, "/dashboard"), "ABC123")
	require.True(t, res.Succeeded())

	props := res.Ticket.Properties
	require.Equal(t, "AT-1", props.GetItem(handshake.TokenItemAccessToken))
	require.Equal(t, "RT-1", props.GetItem(handshake.TokenItemRefreshToken))
	require.Equal(t, "Bearer", props.GetItem(handshake.TokenItemTokenType))
	require.Equal(t, "2026-03-01T04:30:00Z", props.GetItem(handshake.TokenItemExpiresAt))
}
