package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkelly/billgate/internal/state"
)

// Connector produces one connection attempt per call. The returned
// channel yields the attempt's states and is closed when the attempt
// has fully terminated, including resource cleanup.
type Connector interface {
	Connect(ctx context.Context) <-chan state.State
}

// Config holds retry settings.
type Config struct {
	ReconnectBaseDelay time.Duration // First delay after a disconnect
	ReconnectMaxDelay  time.Duration // Backoff cap
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
	}
}

// Supervisor runs connection attempts until one terminally fails or
// the supervisor is stopped. It is the only writer to the state channel.
type Supervisor struct {
	cfg     Config
	conn    Connector
	channel *state.Channel
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Supervisor. Nothing runs until Start.
func New(cfg Config, conn Connector, channel *state.Channel, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:     cfg,
		conn:    conn,
		channel: channel,
		logger:  logger,
	}
}

// Start launches the background connection loop.
func (s *Supervisor) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("connection supervisor started",
		"reconnect_base_delay", s.cfg.ReconnectBaseDelay,
		"reconnect_max_delay", s.cfg.ReconnectMaxDelay,
	)
}

// Stop cancels the loop and waits for the current attempt to wind down.
func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("connection supervisor stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("supervisor stop timed out")
		return ctx.Err()
	}
}

// run is the retry loop. One attempt at a time; the next starts only
// after the previous sequence has fully terminated.
func (s *Supervisor) run() {
	defer s.wg.Done()

	delay := s.cfg.ReconnectBaseDelay

	for attempt := 1; ; attempt++ {
		terminal, sawReady := s.attempt()
		if terminal {
			return
		}
		if s.ctx.Err() != nil {
			return
		}

		if sawReady {
			// The link was usable; start backoff over.
			delay = s.cfg.ReconnectBaseDelay
		}

		s.logger.Info("reconnecting", "attempt", attempt, "delay", delay)

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.cfg.ReconnectMaxDelay {
			delay = s.cfg.ReconnectMaxDelay
		}
	}
}

// attempt consumes one full connect sequence, forwarding every state
// into the channel. Terminal is true once Failed was published; no
// further attempts are made for the life of the process.
func (s *Supervisor) attempt() (terminal, sawReady bool) {
	states := s.conn.Connect(s.ctx)

	for st := range states {
		s.channel.Publish(st)

		switch st.Kind {
		case state.KindReady:
			sawReady = true
		case state.KindFailed:
			s.logger.Error("billing connection terminally failed", "error", st.Err)
			terminal = true
		}
	}

	return terminal, sawReady
}
