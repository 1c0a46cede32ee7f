// Package transport owns the single encrypted TCP connection used by a
// crawl run and provides the framed send/receive primitives the HTTP layer
// is built on.
//
// The channel deliberately does not know anything about HTTP semantics
// beyond response framing: it reads until the header delimiter appears,
// then reads exactly Content-Length further bytes of body. Everything
// above that (request formatting, header parsing, cookies) belongs to
// the httpmsg and session packages.
//
// # Error taxonomy
//
//   - ErrConnection wraps DNS, TLS handshake, and socket failures.
//   - ErrProtocol wraps framing violations, currently a response whose
//     header section lacks a parseable Content-Length.
//
// Both are fatal to the run; no retry policy exists at this layer.
package transport
