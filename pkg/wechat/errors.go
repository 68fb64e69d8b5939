package wechat

import "errors"

var (
	// ErrMissingAppID is returned when the WeChat app ID is not configured.
	ErrMissingAppID = errors.New("wechat: missing app ID")

	// ErrMissingAppSecret is returned when the WeChat app secret is not configured.
	ErrMissingAppSecret = errors.New("wechat: missing app secret")

	// ErrExchangeFailed is returned when the token endpoint call fails at
	// the transport level (network error or non-2xx status).
	ErrExchangeFailed = errors.New("wechat: code exchange failed")

	// ErrProviderError is returned when WeChat reports an errcode inside an
	// otherwise successful response body. Status-code checks alone cannot
	// catch this.
	ErrProviderError = errors.New("wechat: provider returned an error")

	// ErrProfileFetchFailed is returned when the userinfo endpoint call fails.
	ErrProfileFetchFailed = errors.New("wechat: profile fetch failed")

	// ErrDecodeFailed is returned when a provider response body is not valid JSON.
	ErrDecodeFailed = errors.New("wechat: failed to decode provider response")
)

// ErrTokenMissing is returned when a successful token response carries no
// access token. Kept distinct from ErrProviderError for diagnosability, and
// typed so orchestration layers can classify it without importing this
// package (via the TokenMissing method).
var ErrTokenMissing error = tokenMissingError{}

type tokenMissingError struct{}

func (tokenMissingError) Error() string { return "wechat: access token missing from response" }

func (tokenMissingError) TokenMissing() bool { return true }
