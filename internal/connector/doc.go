// Package connector adapts the billing service's asynchronous connect
// handshake into a sequence of connection states.
//
// Each Connect call is one attempt: dial the WebSocket endpoint, send a
// signed hello command, and wait for the service to accept or reject
// it. An accepted connection stays live until the service drops the
// socket or the attempt context is cancelled. The socket is released
// exactly once on every exit path.
package connector
