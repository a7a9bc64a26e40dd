package state

// Kind enumerates the connection lifecycle states.
type Kind int

const (
	// KindInit means no connection attempt has been made yet.
	KindInit Kind = iota

	// KindConnecting means the handshake is in flight.
	KindConnecting

	// KindReady means the handshake succeeded and the connection is usable.
	KindReady

	// KindDisconnected means the connection dropped; a retry always follows.
	KindDisconnected

	// KindFailed means the handshake was rejected; terminal until restart.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindConnecting:
		return "connecting"
	case KindReady:
		return "ready"
	case KindDisconnected:
		return "disconnected"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a single connection state value. Err is set only for KindFailed.
type State struct {
	Kind Kind
	Err  error
}

// Init returns the initial state.
func Init() State { return State{Kind: KindInit} }

// Connecting returns the handshake-in-flight state.
func Connecting() State { return State{Kind: KindConnecting} }

// Ready returns the connection-usable state.
func Ready() State { return State{Kind: KindReady} }

// Disconnected returns the connection-dropped state.
func Disconnected() State { return State{Kind: KindDisconnected} }

// Failed returns the terminal failure state carrying the classified error.
func Failed(err error) State { return State{Kind: KindFailed, Err: err} }

// Decided reports whether the state resolves a pending request:
// either the connection is usable or it has terminally failed.
func (s State) Decided() bool {
	return s.Kind == KindReady || s.Kind == KindFailed
}
