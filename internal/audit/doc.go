// Package audit provides the asynchronous audit event pipeline used by
// the root gate.
//
// Events are emitted by request-scoped gate operations, buffered in a
// channel, and forwarded to a caller-supplied [Sink] by a single
// dispatcher goroutine so slow sinks never block the authentication path.
package audit
