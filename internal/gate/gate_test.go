package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkelly/billgate/internal/state"
)

func TestGate_RunsImmediatelyWhenReady(t *testing.T) {
	ch := state.NewChannel()
	ch.Publish(state.Ready())

	g := New(ch)

	ran := false
	err := g.RunWhenReady(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunWhenReady failed: %v", err)
	}
	if !ran {
		t.Error("unit of work did not run")
	}
}

func TestGate_BlocksUntilReady(t *testing.T) {
	ch := state.NewChannel()
	ch.Publish(state.Connecting())

	g := New(ch)

	started := make(chan struct{})
	done := make(chan error, 1)
	var ranAt atomic.Int64

	go func() {
		close(started)
		done <- g.RunWhenReady(context.Background(), func(context.Context) error {
			ranAt.Store(time.Now().UnixNano())
			return nil
		})
	}()

	<-started

	// Still connecting: the work must not have run yet.
	select {
	case err := <-done:
		t.Fatalf("RunWhenReady returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	if ranAt.Load() != 0 {
		t.Fatal("unit of work ran while still connecting")
	}

	publishedAt := time.Now().UnixNano()
	ch.Publish(state.Ready())

	if err := <-done; err != nil {
		t.Fatalf("RunWhenReady failed: %v", err)
	}
	if ranAt.Load() < publishedAt {
		t.Error("unit of work ran before Ready was published")
	}
}

func TestGate_FailsWithoutRunningWork(t *testing.T) {
	ch := state.NewChannel()
	ch.Publish(state.Connecting())

	g := New(ch)

	done := make(chan error, 1)
	ran := false
	go func() {
		done <- g.RunWhenReady(context.Background(), func(context.Context) error {
			ran = true
			return nil
		})
	}()

	wantErr := errors.New("rejected")
	ch.Publish(state.Failed(wantErr))

	err := <-done
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunWhenReady error = %v, want %v", err, wantErr)
	}
	if ran {
		t.Error("unit of work ran despite terminal failure")
	}
}

func TestGate_WaitsThroughDisconnects(t *testing.T) {
	ch := state.NewChannel()

	g := New(ch)

	done := make(chan error, 1)
	go func() {
		done <- g.RunWhenReady(context.Background(), func(context.Context) error {
			return nil
		})
	}()

	// A full retry cycle must not resolve the caller.
	ch.Publish(state.Connecting())
	ch.Publish(state.Disconnected())
	ch.Publish(state.Connecting())

	select {
	case err := <-done:
		t.Fatalf("RunWhenReady resolved during retry cycle: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	ch.Publish(state.Ready())
	if err := <-done; err != nil {
		t.Fatalf("RunWhenReady failed after reconnect: %v", err)
	}
}

func TestGate_ContextCancellation(t *testing.T) {
	ch := state.NewChannel()
	ch.Publish(state.Connecting())

	g := New(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.RunWhenReady(ctx, func(context.Context) error { return nil })
	}()

	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("RunWhenReady error = %v, want context.Canceled", err)
	}
}

func TestGate_ConcurrentCallersAllResolve(t *testing.T) {
	ch := state.NewChannel()
	ch.Publish(state.Connecting())

	g := New(ch)

	const callers = 10
	var ran atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- g.RunWhenReady(context.Background(), func(context.Context) error {
				ran.Add(1)
				return nil
			})
		}()
	}

	// Let the callers park.
	time.Sleep(20 * time.Millisecond)
	ch.Publish(state.Ready())

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("caller failed: %v", err)
		}
	}
	if got := ran.Load(); got != callers {
		t.Errorf("units of work run = %d, want %d", got, callers)
	}
}
