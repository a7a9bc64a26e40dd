package gate

import (
	"context"
	"fmt"

	"github.com/mkelly/billgate/internal/state"
)

// Observer is the read side of the state channel.
type Observer interface {
	Observe(ctx context.Context) <-chan state.State
}

// Gate blocks units of work until the connection state is decided.
type Gate struct {
	channel Observer
}

// New creates a Gate over the given state channel.
func New(channel Observer) *Gate {
	return &Gate{channel: channel}
}

// RunWhenReady suspends until the state resolves to Ready or Failed.
// On Ready it executes fn and returns its result; on Failed it returns
// the carried error without executing fn. Undecided states keep the
// caller waiting. Concurrent callers resolve independently.
func (g *Gate) RunWhenReady(ctx context.Context, fn func(context.Context) error) error {
	obsCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	states := g.channel.Observe(obsCtx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-states:
			switch st.Kind {
			case state.KindReady:
				return fn(ctx)
			case state.KindFailed:
				return st.Err
			case state.KindInit, state.KindConnecting, state.KindDisconnected:
				// Not decided yet; keep waiting.
			default:
				panic(fmt.Sprintf("impossible connection state %d", st.Kind))
			}
		}
	}
}
