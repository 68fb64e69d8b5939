package authstate

import "maps"

// Properties is the round-trip context of one login handshake: where to send
// the user after login plus an extensible bag of string items (correlation
// nonce, persisted tokens, anything the host wants echoed back).
type Properties struct {
	RedirectURI string            `json:"redirect_uri,omitempty"`
	Items       map[string]string `json:"items,omitempty"`
}

// GetItem returns the item stored under key, or "" if absent.
func (p *Properties) GetItem(key string) string {
	return p.Items[key]
}

// SetItem stores value under key, allocating the bag on first use.
func (p *Properties) SetItem(key, value string) {
	if p.Items == nil {
		p.Items = make(map[string]string)
	}
	p.Items[key] = value
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (p Properties) Clone() Properties {
	c := Properties{RedirectURI: p.RedirectURI}
	if p.Items != nil {
		c.Items = maps.Clone(p.Items)
	}
	return c
}
