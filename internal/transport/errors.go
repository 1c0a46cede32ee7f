package transport

import "errors"

// Sentinel errors for the transport layer.
//
// Design decision: We use package-level sentinels wrapped with context via
// fmt.Errorf("%w: ...") rather than custom error types. Callers only ever
// need errors.Is to distinguish connection failures from framing failures,
// so structured fields would be unused weight.
var (
	// ErrConnection indicates a DNS, TLS, or socket failure during
	// connect, send, or receive. Not recoverable; the run aborts.
	ErrConnection = errors.New("connection failure")

	// ErrProtocol indicates the peer violated response framing, such as
	// omitting a parseable Content-Length header. The original client this
	// tool descends from logged the condition and continued with an
	// undefined length; we fail the request instead.
	ErrProtocol = errors.New("protocol violation")

	// ErrClosed indicates an operation on a channel that was never
	// connected or has been closed.
	ErrClosed = errors.New("channel is closed")
)
