package handshake

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slzhly/wechatauth/pkg/authstate"
	"github.com/slzhly/wechatauth/pkg/response"
)

// SuccessFunc receives the issued ticket before the post-login redirect.
// This is where the host establishes its session. Returning an error aborts
// the redirect and renders a failure instead.
type SuccessFunc func(w http.ResponseWriter, r *http.Request, t *Ticket) error

// FailureFunc renders a failed handshake.
type FailureFunc func(w http.ResponseWriter, r *http.Request, res Result)

// RouterOption configures Router.
type RouterOption func(*routerConfig)

type routerConfig struct {
	challengePath string
	onSuccess     SuccessFunc
	onFailure     FailureFunc
}

// WithChallengePath sets the path that starts a login (default "/login").
func WithChallengePath(path string) RouterOption {
	return func(c *routerConfig) {
		if path != "" {
			c.challengePath = path
		}
	}
}

// WithSuccess sets the session-establishment hook.
func WithSuccess(fn SuccessFunc) RouterOption {
	return func(c *routerConfig) {
		if fn != nil {
			c.onSuccess = fn
		}
	}
}

// WithFailure replaces the default failure renderer.
func WithFailure(fn FailureFunc) RouterOption {
	return func(c *routerConfig) {
		if fn != nil {
			c.onFailure = fn
		}
	}
}

// Router mounts the two handshake endpoints on a chi router: the challenge
// path (starts a login, honoring an optional redirect_uri query parameter)
// and the provider callback path.
//
// On success the user is redirected to the properties' redirect target after
// the success hook runs. On failure the failure renderer answers; the
// default one emits the standard response envelope, except for a declined
// consent, which redirects back to the intended destination.
func (h *Handler) Router(opts ...RouterOption) http.Handler {
	cfg := &routerConfig{
		challengePath: "/login",
		onSuccess:     func(http.ResponseWriter, *http.Request, *Ticket) error { return nil },
		onFailure:     defaultFailure,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Get(cfg.challengePath, func(w http.ResponseWriter, r *http.Request) {
		props := authstate.Properties{RedirectURI: r.URL.Query().Get("redirect_uri")}
		if err := h.Challenge(w, r, props); err != nil {
			h.log.ErrorContext(r.Context(), "challenge failed", "error", err)
			response.Write(w, http.StatusInternalServerError,
				response.Fail(http.StatusInternalServerError, "could not start login"))
		}
	})
	r.Get(h.callbackPath, func(w http.ResponseWriter, r *http.Request) {
		res := h.Callback(w, r)
		if !res.Succeeded() {
			cfg.onFailure(w, r, res)
			return
		}
		if err := cfg.onSuccess(w, r, res.Ticket); err != nil {
			h.log.ErrorContext(r.Context(), "session establishment failed", "error", err)
			cfg.onFailure(w, r, failed(KindTicketFailed, "could not establish session", err, res.Properties))
			return
		}

		target := res.Ticket.Properties.RedirectURI
		if target == "" {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
	return r
}

// defaultFailure renders failures without leaking provider diagnostics to
// the end user; the full reason stays in Result for the host's logs.
func defaultFailure(w http.ResponseWriter, r *http.Request, res Result) {
	if res.Kind == KindUserDeclined {
		target := "/"
		if res.Properties != nil && res.Properties.RedirectURI != "" {
			target = res.Properties.RedirectURI
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	status := http.StatusBadRequest
	if res.Kind == KindProviderError || res.Kind == KindProfileFetchFailed || res.Kind == KindTokenMissing {
		status = http.StatusBadGateway
	}
	response.Write(w, status, response.Fail(status, "login failed"))
}
