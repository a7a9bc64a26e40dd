package connector

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mkelly/billgate/internal/model"
	"github.com/mkelly/billgate/internal/state"
	"github.com/mkelly/billgate/internal/version"
)

// WSConnector drives connect attempts against the billing service.
// It owns at most one live session at a time.
type WSConnector struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	sess     *session
	features map[string]struct{} // Last reported feature set, survives disconnects
}

// New creates a connector. No connection attempt is made until Connect.
func New(cfg Config, logger *slog.Logger) *WSConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSConnector{
		cfg:    cfg,
		logger: logger,
	}
}

// Connect starts a single connection attempt and returns its state
// sequence. The channel is closed when the attempt terminates; the
// socket is released on every termination path, including ctx
// cancellation.
func (c *WSConnector) Connect(ctx context.Context) <-chan state.State {
	out := make(chan state.State, 4)
	go c.run(ctx, out)
	return out
}

// Session returns the live session, if any. A session disappears the
// moment its attempt terminates.
func (c *WSConnector) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return nil, false
	}
	return c.sess, true
}

// Supports reports whether the service's last advertised feature set
// includes the capability. Conservative false before the first
// successful handshake.
func (c *WSConnector) Supports(cap model.Capability) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.features[string(cap)]
	return ok
}

// run performs one connection attempt.
func (c *WSConnector) run(ctx context.Context, out chan<- state.State) {
	defer close(out)

	out <- state.Connecting()

	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Warn("dial failed", "url", c.cfg.URL, "error", err)
		out <- state.Disconnected()
		return
	}

	sess := newSession(c.cfg, conn, c.logger)
	defer sess.close()

	go sess.readLoop()

	resp, err := sess.hello(ctx, c.cfg.ClientID, version.Version)
	if err != nil {
		c.logger.Warn("handshake failed", "error", err)
		out <- state.Disconnected()
		return
	}

	switch resp.Type {
	case "rejected":
		var msg RejectedMsg
		berr := &model.BillingError{Code: model.CodeBillingUnavailable}
		if err := json.Unmarshal(resp.Msg, &msg); err == nil {
			berr = &model.BillingError{Code: msg.Code, Message: msg.Message}
		}
		c.logger.Error("handshake rejected", "code", berr.Code, "message", berr.Message)
		out <- state.Failed(berr)
		return

	case "connected":
		var msg ConnectedMsg
		if err := json.Unmarshal(resp.Msg, &msg); err != nil {
			c.logger.Warn("bad connected response", "error", err)
			out <- state.Disconnected()
			return
		}
		c.setSession(sess, msg.Features)
		defer c.clearSession()

	default:
		c.logger.Warn("unexpected handshake response", "type", resp.Type)
		out <- state.Disconnected()
		return
	}

	out <- state.Ready()
	c.logger.Info("billing service connected", "url", c.cfg.URL)

	select {
	case <-ctx.Done():
		return
	case err := <-sess.errs:
		c.logger.Warn("connection dropped", "error", err)
		out <- state.Disconnected()
	}
}

// dial opens the WebSocket connection with signed headers.
func (c *WSConnector) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	if c.cfg.Credentials != nil {
		signed, err := c.cfg.Credentials.SignConnect()
		if err != nil {
			return nil, err
		}
		for k, v := range signed {
			header.Set(k, v)
		}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	return conn, err
}

func (c *WSConnector) setSession(sess *session, features []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = sess
	c.features = make(map[string]struct{}, len(features))
	for _, f := range features {
		c.features[f] = struct{}{}
	}
}

func (c *WSConnector) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = nil
}
