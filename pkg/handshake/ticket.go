package handshake

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/slzhly/wechatauth/pkg/authstate"
)

// Ticket is the authenticated identity handed to the host after a
// successful handshake. The host owns it from there: establishing a session,
// persisting it, or discarding it are not this package's concern.
type Ticket struct {
	// Subject is the provider's per-application user identifier (openid).
	Subject string

	// FederatedID is the cross-application identifier (unionid), empty for
	// accounts without identity federation.
	FederatedID string

	// Claims are identity attributes extracted from the provider payload.
	Claims map[string]string

	// Properties is the round-trip context, including persisted tokens
	// when token saving is enabled.
	Properties authstate.Properties

	// Scheme names the issuing provider.
	Scheme string
}

// ClaimMapper populates ticket claims from the canonical identity payload.
// It runs last in ticket assembly, after subject extraction and token
// persistence, and may overwrite the defaults.
type ClaimMapper func(payload map[string]any, t *Ticket)

// Claim names used by the default mapper.
const (
	ClaimSubject     = "openid"
	ClaimFederatedID = "unionid"
	ClaimNickname    = "nickname"
	ClaimAvatarURL   = "headimgurl"
	ClaimSex         = "sex"
	ClaimProvince    = "province"
	ClaimCity        = "city"
	ClaimCountry     = "country"
)

// DefaultClaimMapper copies the well-known profile fields into claims when
// present.
func DefaultClaimMapper(payload map[string]any, t *Ticket) {
	for _, name := range []string{ClaimNickname, ClaimAvatarURL, ClaimSex, ClaimProvince, ClaimCity, ClaimCountry} {
		switch v := payload[name].(type) {
		case string:
			if v != "" {
				t.Claims[name] = v
			}
		case nil:
		default:
			// Numeric fields (e.g. sex) arrive as json.Number.
			if s, ok := v.(interface{ String() string }); ok {
				t.Claims[name] = s.String()
			}
		}
	}
}

// Properties item names for persisted tokens.
const (
	TokenItemAccessToken  = "access_token"
	TokenItemRefreshToken = "refresh_token"
	TokenItemTokenType    = "token_type"
	TokenItemExpiresAt    = "expires_at"
)

// storeTokens records the token on the properties bag. The expiry is stored
// as an absolute RFC 3339 UTC instant, not the relative expires_in: the
// ticket may be inspected long after issuance.
func storeTokens(props *authstate.Properties, token *oauth2.Token) {
	props.SetItem(TokenItemAccessToken, token.AccessToken)
	if token.RefreshToken != "" {
		props.SetItem(TokenItemRefreshToken, token.RefreshToken)
	}
	if token.TokenType != "" {
		props.SetItem(TokenItemTokenType, token.TokenType)
	}
	if !token.Expiry.IsZero() {
		props.SetItem(TokenItemExpiresAt, token.Expiry.UTC().Format(time.RFC3339))
	}
}
