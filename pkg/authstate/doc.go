// Package authstate protects authentication round-trip state.
//
// During a login handshake the application sends an opaque "state" value to
// the identity provider and receives it back unchanged on the callback. The
// state carries the caller's post-login redirect target and a CSRF
// correlation nonce, so it must be tamper-evident and unreadable in transit.
//
// [Codec] encrypts a [Properties] value with AES-256-GCM into a URL-safe
// string and decrypts it back, rejecting anything malformed, tampered with,
// or older than the configured maximum age:
//
//	codec, err := authstate.New(secret, authstate.WithMaxAge(15*time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	blob, err := codec.Protect(authstate.Properties{RedirectURI: "/dashboard"})
//	// ... round-trip via the provider ...
//	props, err := codec.Unprotect(blob)
//
// Blobs carry no server-side single-use marker: decoding the same blob twice
// succeeds. Each decode starts an independent handshake; replay protection
// for the authorization code itself is the provider's responsibility.
package authstate
