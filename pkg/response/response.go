// Package response provides the uniform success/failure envelope that every
// API answer in the host application is wrapped in.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// OK wraps a payload in a success envelope.
func OK(result any) Envelope {
	return Envelope{Code: 0, Success: true, Result: result}
}

// Fail builds a failure envelope with a machine code and human message.
func Fail(code int, msg string) Envelope {
	return Envelope{Code: code, Msg: msg}
}

// Write serializes env as JSON with the given HTTP status.
func Write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
