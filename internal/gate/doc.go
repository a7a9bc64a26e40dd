// Package gate suspends callers until the connection state is decided.
//
// A unit of work passed to RunWhenReady executes only once the state
// channel reports Ready; if the channel instead reports a terminal
// failure, the caller gets that failure and the work never runs.
package gate
