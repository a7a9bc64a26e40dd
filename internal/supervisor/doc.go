// Package supervisor owns the connection retry loop. It drives the
// connector through successive attempts, republishes every emitted
// state into the broadcast channel, backs off between reconnects, and
// stops permanently once the service rejects the handshake.
package supervisor
