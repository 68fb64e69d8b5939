// Package logger builds slog loggers for the login toolkit.
//
// [New] returns a JSON logger writing to stdout. Attribute extractors pull
// request-scoped values (a handshake id, a request id) out of the context on
// every log call, so handshake steps across goroutines stay correlatable:
//
//	log := logger.New(logger.Extract("handshake_id", handshakeIDFromContext))
//	log.InfoContext(ctx, "code exchanged")
//
// [NewWithSentry] additionally fans warnings and errors out to Sentry; with
// an empty DSN it degrades to stdout-only so local development needs no
// configuration. [NewNop] discards everything and is the default for library
// components whose caller did not wire a logger.
package logger
