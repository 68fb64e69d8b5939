// Package handshake orchestrates a delegated login against an external
// identity provider.
//
// The flow has two entry points. Challenge sends an unauthenticated user to
// the provider: it fills in the post-login destination, generates a CSRF
// correlation nonce, seals both into an encrypted state blob, and issues the
// authorization redirect. Callback receives the provider's redirect back and
// walks a fixed sequence: decode state, confirm correlation, require the
// authorization code, exchange it for a token, optionally fetch the extended
// profile, and assemble the identity ticket. Any step can divert to a terminal
// failure; the [Result] records which one and why, and keeps the decoded
// properties so the host can still honor the user's intended destination.
//
// The state machine is provider-agnostic: it drives any [Provider]
// implementation (see the wechat package for the reference one) and owns no
// provider specifics beyond the contract.
//
// Session establishment is deliberately out of scope. A successful Callback
// hands the [Ticket] to the host, which owns cookies, session storage, and
// everything after.
package handshake
