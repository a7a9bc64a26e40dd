// Package billgate provides a process-wide gateway to an external
// billing service. It owns a single supervised connection: requests
// suspend until the link is usable, disconnects retry automatically,
// and a rejected handshake fails every request until process restart.
package billgate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mkelly/billgate/internal/auth"
	"github.com/mkelly/billgate/internal/connector"
	"github.com/mkelly/billgate/internal/gate"
	"github.com/mkelly/billgate/internal/state"
	"github.com/mkelly/billgate/internal/supervisor"
)

// Options configures the gateway.
type Options struct {
	ServiceURL     string        // WebSocket URL of the billing service (required)
	ClientID       string        // Identifies this installation to the service
	KeyID          string        // API key ID for signed handshakes (optional)
	PrivateKeyPath string        // RSA private key PEM path (required when KeyID set)

	HandshakeTimeout   time.Duration // Default 10s
	QueryTimeout       time.Duration // Default 30s
	WriteTimeout       time.Duration // Default 5s
	ReconnectBaseDelay time.Duration // Default 1s
	ReconnectMaxDelay  time.Duration // Default 60s

	Logger *slog.Logger // Default slog.Default()
}

// Gateway is the process-wide handle to the billing service.
type Gateway struct {
	logger *slog.Logger

	channel *state.Channel
	conn    *connector.WSConnector
	super   *supervisor.Supervisor
	gate    *gate.Gate
}

var (
	instanceMu sync.Mutex
	instance   *Gateway
	instErr    error
	created    bool
)

// GetOrCreate returns the process-wide Gateway, constructing it on
// first call. Construction is serialized: concurrent first callers all
// get the same instance. The connection supervisor starts immediately
// and runs for the life of the process.
func GetOrCreate(opts Options) (*Gateway, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if !created {
		instance, instErr = newGateway(opts)
		created = true
	}
	return instance, instErr
}

// newGateway wires the components and starts the supervisor.
func newGateway(opts Options) (*Gateway, error) {
	if opts.ServiceURL == "" {
		return nil, errors.New("service URL is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	connCfg := connector.DefaultConfig()
	connCfg.URL = opts.ServiceURL
	connCfg.ClientID = opts.ClientID
	if opts.HandshakeTimeout > 0 {
		connCfg.HandshakeTimeout = opts.HandshakeTimeout
	}
	if opts.QueryTimeout > 0 {
		connCfg.QueryTimeout = opts.QueryTimeout
	}
	if opts.WriteTimeout > 0 {
		connCfg.WriteTimeout = opts.WriteTimeout
	}

	if opts.KeyID != "" {
		creds, err := auth.LoadCredentials(opts.KeyID, opts.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		connCfg.Credentials = creds
	}

	superCfg := supervisor.DefaultConfig()
	if opts.ReconnectBaseDelay > 0 {
		superCfg.ReconnectBaseDelay = opts.ReconnectBaseDelay
	}
	if opts.ReconnectMaxDelay > 0 {
		superCfg.ReconnectMaxDelay = opts.ReconnectMaxDelay
	}

	g := &Gateway{
		logger:  logger.With("component", "billgate"),
		channel: state.NewChannel(),
	}
	g.conn = connector.New(connCfg, g.logger)
	g.super = supervisor.New(superCfg, g.conn, g.channel, g.logger)
	g.gate = gate.New(g.channel)

	g.super.Start(context.Background())

	return g, nil
}

// QueryCatalog fetches catalog details for the given product specs.
// The call suspends until the connection is Ready, then executes the
// query; once the connection has terminally failed, it and every later
// call fail immediately with the classified error.
func (g *Gateway) QueryCatalog(ctx context.Context, specs []ProductSpec) ([]Product, error) {
	if len(specs) == 0 {
		return nil, ErrNoProducts
	}

	for {
		var products []Product
		err := g.gate.RunWhenReady(ctx, func(ctx context.Context) error {
			sess, ok := g.conn.Session()
			if !ok {
				return connector.ErrNotConnected
			}
			var qerr error
			products, qerr = sess.Query(ctx, specs)
			return qerr
		})
		if errors.Is(err, connector.ErrNotConnected) {
			// Lost the race with a disconnect; wait for the next Ready.
			continue
		}
		return products, err
	}
}

// IsCapabilitySupported reports whether the service's last advertised
// feature set includes the capability. It never suspends and returns a
// conservative false before the first successful handshake.
func (g *Gateway) IsCapabilitySupported(cap Capability) bool {
	return g.conn.Supports(cap)
}

// ConnectionState returns the current connection state kind, for
// operational logging.
func (g *Gateway) ConnectionState() string {
	return g.channel.Current().Kind.String()
}

// Shutdown cancels the supervised connection and waits for its
// cleanup. Only the process shutdown path uses this; a running
// application never tears the gateway down.
func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.super.Stop(ctx)
}
