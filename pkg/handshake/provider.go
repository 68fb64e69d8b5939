package handshake

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Provider is the capability set a login provider must implement. One
// implementation exists per provider; the state machine takes it as a
// dependency and stays free of provider specifics.
type Provider interface {
	// Name identifies the provider; it becomes the ticket's scheme name.
	Name() string

	// BuildAuthorizationURL composes the authorization redirect for the
	// inbound request. state is the protected blob to round-trip. No
	// network calls.
	BuildAuthorizationURL(r *http.Request, redirectURI, state string) string

	// ExchangeCode trades an authorization code for an access token plus
	// the provider's raw response payload. Implementations must surface
	// provider-level errors hidden inside successful transport responses.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*oauth2.Token, map[string]any, error)

	// FetchProfile retrieves the extended user profile. The state machine
	// calls it only when the token payload carries a federated identifier.
	FetchProfile(ctx context.Context, openID, accessToken string) (map[string]any, error)
}
