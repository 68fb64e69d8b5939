// Package wechat implements the WeChat OAuth2-style login provider.
//
// WeChat exposes two endpoint families: QR-code login for standard browsers
// and in-app authorization for the embedded MicroMessenger browser. The
// provider picks the family (and its scope list) per request via
// [DetectVariant], builds the authorization redirect, exchanges authorization
// codes for access tokens, and fetches extended user profiles.
//
// WeChat deviates from RFC 6749 in ways that rule out oauth2.Config: the
// client credentials travel as appid/secret query parameters, the token
// endpoint is a GET, scope values must be comma-joined without percent
// encoding, and errors come back inside HTTP 200 bodies as errcode/errmsg
// pairs. [Provider] handles all of that and still returns a standard
// *oauth2.Token, with the raw provider payload (openid, unionid, scope)
// readable through Token.Extra.
package wechat
