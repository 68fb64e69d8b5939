package handshake

import (
	"errors"

	"github.com/slzhly/wechatauth/pkg/authstate"
)

// FailureKind tags the terminal failure state of a handshake.
type FailureKind int

const (
	// KindNone means the handshake succeeded.
	KindNone FailureKind = iota

	// KindStateInvalid: the round-trip state was missing, tampered with, or
	// expired. Always fatal, never retried.
	KindStateInvalid

	// KindCorrelationMismatch: the callback's correlation value did not
	// match the one recorded at challenge time. Fatal under strict
	// enforcement (the default); logged and ignored in permissive mode.
	KindCorrelationMismatch

	// KindUserDeclined: the provider redirected back without a code, the
	// normal "user refused consent" outcome. Fatal but expected; not an
	// error condition worth alerting on.
	KindUserDeclined

	// KindProviderError: the provider reported a failure, either as a
	// non-2xx status or as a structured error inside a 200 body.
	KindProviderError

	// KindTokenMissing: the provider reported success but supplied no
	// usable access token.
	KindTokenMissing

	// KindProfileFetchFailed: the extended profile fetch was attempted and
	// failed.
	KindProfileFetchFailed

	// KindTicketFailed: identity assembly produced no usable ticket.
	KindTicketFailed
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStateInvalid:
		return "state_invalid"
	case KindCorrelationMismatch:
		return "correlation_mismatch"
	case KindUserDeclined:
		return "user_declined"
	case KindProviderError:
		return "provider_error"
	case KindTokenMissing:
		return "token_missing"
	case KindProfileFetchFailed:
		return "profile_fetch_failed"
	case KindTicketFailed:
		return "ticket_failed"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of one callback. Exactly one of Ticket
// (success) or Kind != KindNone (failure) is set. Properties is best-effort
// on failure: present whenever the state blob decoded, so the host can still
// honor the caller's intended redirect.
type Result struct {
	Ticket     *Ticket
	Properties *authstate.Properties
	Kind       FailureKind
	Reason     string
	Err        error
}

// Succeeded reports whether a ticket was issued.
func (r Result) Succeeded() bool {
	return r.Ticket != nil
}

func success(t *Ticket) Result {
	return Result{Ticket: t, Properties: &t.Properties}
}

func failed(kind FailureKind, reason string, err error, props *authstate.Properties) Result {
	return Result{Kind: kind, Reason: reason, Err: err, Properties: props}
}

// classifyExchange separates "success body without a token" from other
// provider failures. Providers mark the former by implementing
// TokenMissing() bool on the error (see wechat.ErrTokenMissing).
func classifyExchange(err error) FailureKind {
	var tm interface{ TokenMissing() bool }
	if errors.As(err, &tm) && tm.TokenMissing() {
		return KindTokenMissing
	}
	return KindProviderError
}
