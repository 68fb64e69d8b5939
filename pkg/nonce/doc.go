// Package nonce stores one-time correlation values for login handshakes.
//
// A challenge records a correlation nonce under a handshake-scoped key; the
// callback consumes it exactly once with [Store.Take] and compares it against
// the nonce carried inside the protected state. Consuming on read means a
// replayed callback cannot match a second time.
//
// Two backends ship: [Memory] for single-process deployments and [Redis] for
// multi-instance ones, where the callback may land on a different instance
// than the challenge.
package nonce
