package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

// ProviderName is the scheme identifier for WeChat login.
const ProviderName = "wechat"

// Provider implements the WeChat login operations: building the
// authorization redirect, exchanging codes for tokens, and fetching extended
// user profiles.
//
// A Provider holds one HTTP client for all outbound calls; construct it once
// at startup and share it across requests so connections are reused.
type Provider struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
	lang   string
}

const defaultTimeout = 10 * time.Second

// NewProvider creates a Provider from cfg. Returns ErrMissingAppID or
// ErrMissingAppSecret if credentials are absent.
func NewProvider(cfg Config, opts ...Option) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
		now:    time.Now,
		lang:   profileLanguage(cfg.ProfileLanguage),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets a custom HTTP client for provider calls. Useful for
// testing with httptest servers or injecting custom transports.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithClock overrides the time source used to compute token expiry.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// Config returns a copy of the provider configuration.
func (p *Provider) Config() Config {
	return p.cfg
}

// BuildAuthorizationURL composes the authorization redirect for the given
// request. The endpoint and scope list follow [DetectVariant]; a configured
// CallbackURL override replaces redirectURI unconditionally.
//
// The scope value is comma-joined and appended raw: WeChat rejects
// percent-encoded scopes, so it must stay outside url.Values encoding. No
// network call happens here.
func (p *Provider) BuildAuthorizationURL(r *http.Request, redirectURI, state string) string {
	variant := DetectVariant(r)

	if p.cfg.CallbackURL != "" {
		redirectURI = p.cfg.CallbackURL
	}

	q := url.Values{}
	q.Set("appid", p.cfg.AppID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")

	scope := strings.Join(p.cfg.scopesFor(variant), ",")
	endpoint := p.cfg.authorizeEndpointFor(variant)

	return endpoint + "?" + q.Encode() + "&scope=" + scope + "&state=" + state
}

// ExchangeCode trades an authorization code for an access token.
//
// Three failure modes are distinguished: transport/non-2xx status
// (ErrExchangeFailed), an errcode inside a 200 body (ErrProviderError, with
// errcode and errmsg in the message), and a success body with no access
// token (ErrTokenMissing).
//
// On success the raw response payload is returned alongside the token for
// identity extraction (openid, unionid, granted scope); the token also
// carries it via Token.Extra for oauth2-based consumers. WeChat ignores
// redirectURI at this step; it is part of the generic contract.
func (p *Provider) ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, map[string]any, error) {
	q := url.Values{}
	q.Set("appid", p.cfg.AppID)
	q.Set("secret", p.cfg.AppSecret)
	q.Set("code", code)
	q.Set("grant_type", "authorization_code")

	payload, err := p.getJSON(ctx, p.cfg.TokenEndpoint+"?"+q.Encode(), ErrExchangeFailed)
	if err != nil {
		return nil, nil, err
	}

	if errcode, errmsg, ok := providerError(payload); ok {
		return nil, nil, errors.Join(ErrProviderError,
			fmt.Errorf("token endpoint errcode=%s errmsg=%q", errcode, errmsg))
	}

	accessToken, _ := payload["access_token"].(string)
	if accessToken == "" {
		return nil, nil, ErrTokenMissing
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: stringField(payload, "refresh_token"),
		TokenType:    stringField(payload, "token_type"),
	}
	if n, ok := payload["expires_in"].(json.Number); ok {
		if secs, err := n.Int64(); err == nil && secs > 0 {
			token.Expiry = p.now().Add(time.Duration(secs) * time.Second)
		}
	}

	return token.WithExtra(payload), payload, nil
}

// FetchProfile retrieves the extended user profile from the userinfo
// endpoint. Only call it when the token response carried a unionid: accounts
// without cross-app federation have no profile endpoint access, and skipping
// them is correct rather than degraded.
//
// A non-2xx status fails with the HTTP status in the message; so does an
// errcode inside a 200 body.
func (p *Provider) FetchProfile(ctx context.Context, openID, accessToken string) (map[string]any, error) {
	q := url.Values{}
	q.Set("openid", openID)
	q.Set("access_token", accessToken)
	q.Set("lang", p.lang)

	payload, err := p.getJSON(ctx, p.cfg.ProfileEndpoint+"?"+q.Encode(), ErrProfileFetchFailed)
	if err != nil {
		return nil, err
	}

	if errcode, errmsg, ok := providerError(payload); ok {
		return nil, errors.Join(ErrProfileFetchFailed,
			fmt.Errorf("userinfo endpoint errcode=%s errmsg=%q", errcode, errmsg))
	}

	return payload, nil
}

// getJSON performs a GET and decodes the JSON body. transportErr tags
// network and status failures so callers keep their own taxonomy.
func (p *Provider) getJSON(ctx context.Context, rawURL string, transportErr error) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Join(transportErr, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Join(transportErr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Join(transportErr, fmt.Errorf("status %d", resp.StatusCode))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	return payload, nil
}

// providerError reports the errcode/errmsg pair WeChat embeds in 200-status
// error bodies. errcode 0 means success on endpoints that always include it.
func providerError(payload map[string]any) (code, msg string, ok bool) {
	n, present := payload["errcode"].(json.Number)
	if !present || n.String() == "0" {
		return "", "", false
	}
	return n.String(), stringField(payload, "errmsg"), true
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

// WeChat localizes profile fields for a fixed set of languages; anything
// else falls back through the matcher (e.g. en-AU -> en, zh -> zh_CN).
var (
	profileLangTags    = []language.Tag{language.SimplifiedChinese, language.TraditionalChinese, language.English}
	profileLangValues  = []string{"zh_CN", "zh_TW", "en"}
	profileLangMatcher = language.NewMatcher(profileLangTags)
)

func profileLanguage(pref string) string {
	tag, err := language.Parse(pref)
	if err != nil {
		return profileLangValues[0]
	}
	_, idx, _ := profileLangMatcher.Match(tag)
	return profileLangValues[idx]
}
