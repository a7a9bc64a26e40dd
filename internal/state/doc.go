// Package state holds the connection state machine values and the
// latest-value broadcast channel that distributes them.
//
// The channel has single-writer semantics: only the connection
// supervisor publishes. Everyone else observes. A new observer
// immediately sees the most recent state, then every subsequent
// publish; a slow observer coalesces to the latest value rather than
// blocking the publisher.
package state
