package wechat

import (
	"net/http"
	"strings"
)

// ClientVariant selects which WeChat endpoint and scope family applies to a
// request. It is derived from request headers per call and never persisted.
type ClientVariant int

const (
	// StandardBrowser is any generic browser; login happens via QR code on
	// the open-platform endpoint.
	StandardBrowser ClientVariant = iota

	// EmbeddedBrowser is WeChat's built-in browser (MicroMessenger); login
	// happens in-app without a QR code.
	EmbeddedBrowser
)

func (v ClientVariant) String() string {
	if v == EmbeddedBrowser {
		return "embedded"
	}
	return "standard"
}

// DetectVariant inspects the request's User-Agent header. It is a pure
// function: same request metadata, same result. An absent or unrecognized
// User-Agent means StandardBrowser.
func DetectVariant(r *http.Request) ClientVariant {
	ua := strings.ToLower(r.Header.Get("User-Agent"))
	if strings.Contains(ua, "micromessenger") {
		return EmbeddedBrowser
	}
	return StandardBrowser
}
