package handshake

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/slzhly/wechatauth/pkg/authstate"
	"github.com/slzhly/wechatauth/pkg/logger"
)

// Errors.
var (
	ErrNilProvider   = errors.New("handshake: provider required")
	ErrNilCodec      = errors.New("handshake: state codec required")
	ErrNilCorrelator = errors.New("handshake: correlator required")
)

// Handler drives login handshakes for one provider. Construct it once at
// startup; it holds no per-request state and is safe for concurrent use.
type Handler struct {
	provider    Provider
	codec       *authstate.Codec
	correlator  Correlator
	log         *slog.Logger
	claimMapper ClaimMapper

	callbackPath string
	callbackURL  string
	saveTokens   bool
	permissive   bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler's logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithCallbackPath sets the host path the provider redirects back to.
// Defaults to "/signin-<provider>".
func WithCallbackPath(path string) HandlerOption {
	return func(h *Handler) {
		if path != "" {
			h.callbackPath = path
		}
	}
}

// WithCallbackURL pins the redirect URI sent to the provider to one absolute
// URL regardless of which host/scheme the challenge arrived on. The real
// post-login destination still travels inside the state blob.
func WithCallbackURL(url string) HandlerOption {
	return func(h *Handler) {
		h.callbackURL = url
	}
}

// WithSaveTokens persists access/refresh tokens into the ticket properties.
func WithSaveTokens() HandlerOption {
	return func(h *Handler) {
		h.saveTokens = true
	}
}

// WithPermissiveCorrelation downgrades a failed CSRF correlation check from
// fatal to a logged warning.
//
// This reproduces legacy behavior some deployments depend on (correlation
// cookies lost inside embedded browsers). It weakens CSRF protection on the
// callback; leave strict enforcement on unless you have measured breakage.
func WithPermissiveCorrelation() HandlerOption {
	return func(h *Handler) {
		h.permissive = true
	}
}

// WithClaimMapper replaces the claim extension point run during ticket
// assembly. Defaults to [DefaultClaimMapper].
func WithClaimMapper(m ClaimMapper) HandlerOption {
	return func(h *Handler) {
		if m != nil {
			h.claimMapper = m
		}
	}
}

// New creates a Handler for the given provider, state codec, and correlator.
func New(provider Provider, codec *authstate.Codec, correlator Correlator, opts ...HandlerOption) (*Handler, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if codec == nil {
		return nil, ErrNilCodec
	}
	if correlator == nil {
		return nil, ErrNilCorrelator
	}

	h := &Handler{
		provider:    provider,
		codec:       codec,
		correlator:  correlator,
		log:         logger.NewNop(),
		claimMapper: DefaultClaimMapper,
	}
	h.callbackPath = "/signin-" + provider.Name()
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// CallbackPath returns the path the provider redirects back to.
func (h *Handler) CallbackPath() string {
	return h.callbackPath
}

// Challenge redirects the user to the provider's authorization endpoint.
//
// props carries the caller's intent; an empty RedirectURI defaults to the
// current request's path and query, so the user lands back where they were
// interrupted. A fresh correlation nonce is generated, recorded with the
// correlator (Set-Cookie or server-side store), and sealed into the state.
func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request, props authstate.Properties) error {
	if props.RedirectURI == "" {
		props.RedirectURI = r.URL.RequestURI()
	}

	id := uuid.NewString()
	props.SetItem(CorrelationItemKey, id)
	if err := h.correlator.Remember(w, r, id); err != nil {
		return err
	}

	state, err := h.codec.Protect(props)
	if err != nil {
		return err
	}

	authURL := h.provider.BuildAuthorizationURL(r, h.redirectURI(r), state)
	h.log.DebugContext(r.Context(), "redirecting to authorization endpoint",
		slog.String("provider", h.provider.Name()),
		slog.String("redirect_uri", props.RedirectURI),
	)

	http.Redirect(w, r, authURL, http.StatusFound)
	return nil
}

// Callback processes the provider's redirect back and returns the terminal
// Result. It writes no response body itself beyond correlator cookie
// bookkeeping; rendering the outcome is the caller's job (see Router for a
// ready-made wrapper).
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) Result {
	ctx := r.Context()
	query := r.URL.Query()

	// The provider sends back only code and state; a user who declined
	// consent arrives with state alone.
	props, err := h.codec.Unprotect(query.Get("state"))
	if err != nil {
		return failed(KindStateInvalid, "state missing or invalid", err, nil)
	}

	if err := h.correlator.Confirm(w, r, props.GetItem(CorrelationItemKey)); err != nil {
		if !h.permissive {
			return failed(KindCorrelationMismatch, "correlation failed", err, &props)
		}
		h.log.WarnContext(ctx, "correlation failed, continuing in permissive mode",
			slog.String("provider", h.provider.Name()),
			slog.String("error", err.Error()),
		)
	}

	code := query.Get("code")
	if code == "" {
		h.log.InfoContext(ctx, "authorization declined by user",
			slog.String("provider", h.provider.Name()),
		)
		return failed(KindUserDeclined, "authorization code missing", nil, &props)
	}

	token, payload, err := h.provider.ExchangeCode(ctx, code, h.redirectURI(r))
	if err != nil {
		return failed(classifyExchange(err), err.Error(), err, &props)
	}

	// Extended profile data exists only behind a federated identity; its
	// payload replaces the token response as the identity source.
	if unionID, _ := payload[ClaimFederatedID].(string); unionID != "" {
		openID, _ := payload[ClaimSubject].(string)
		profile, err := h.provider.FetchProfile(ctx, openID, token.AccessToken)
		if err != nil {
			return failed(KindProfileFetchFailed, err.Error(), err, &props)
		}
		payload = profile
	}

	ticket := h.buildTicket(payload, token, props)
	if ticket == nil {
		return failed(KindTicketFailed, "could not retrieve remote user information", nil, &props)
	}

	h.log.InfoContext(ctx, "login handshake completed",
		slog.String("provider", h.provider.Name()),
		slog.Bool("federated", ticket.FederatedID != ""),
	)
	return success(ticket)
}

// buildTicket assembles the identity ticket from the canonical payload. A
// payload without a subject identifier yields nil.
func (h *Handler) buildTicket(payload map[string]any, token *oauth2.Token, props authstate.Properties) *Ticket {
	openID, _ := payload[ClaimSubject].(string)
	if openID == "" {
		return nil
	}
	unionID, _ := payload[ClaimFederatedID].(string)

	if h.saveTokens {
		storeTokens(&props, token)
	}

	t := &Ticket{
		Subject:     openID,
		FederatedID: unionID,
		Claims:      map[string]string{ClaimSubject: openID},
		Properties:  props,
		Scheme:      h.provider.Name(),
	}
	if unionID != "" {
		t.Claims[ClaimFederatedID] = unionID
	}

	h.claimMapper(payload, t)
	if t.Subject == "" {
		return nil
	}
	return t
}

// redirectURI computes the redirect URI sent to the provider: the pinned
// CallbackURL when configured, otherwise the callback path resolved against
// the inbound request's scheme and host.
func (h *Handler) redirectURI(r *http.Request) string {
	if h.callbackURL != "" {
		return h.callbackURL
	}
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + h.callbackPath
}
