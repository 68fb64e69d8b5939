// Package cookie reads and writes HTTP cookies, optionally signing values
// with HMAC-SHA256 so a returning cookie provably originated here.
//
// The login handshake uses a signed cookie to carry the CSRF correlation
// value between challenge and callback. Confidentiality is not needed at
// this layer (the matching secret travels encrypted inside the state blob),
// so signing is the only cryptographic operation offered.
//
//	m := cookie.New(cookie.WithSecret(secret), cookie.WithSecure(true))
//	_ = m.SetSigned(w, "login_correlation", nonce, 900)
//	value, err := m.GetSigned(r, "login_correlation")
package cookie
