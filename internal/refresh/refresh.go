package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mkelly/billgate/internal/model"
)

// CatalogSource answers catalog queries. The billing gateway satisfies
// this; calls may suspend until the connection is ready.
type CatalogSource interface {
	QueryCatalog(ctx context.Context, specs []model.ProductSpec) ([]model.Product, error)
}

// SnapshotHandler receives fetched catalog snapshots.
type SnapshotHandler interface {
	HandleProducts(ctx context.Context, products []model.Product) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(context.Context, []model.Product) error

func (f SnapshotHandlerFunc) HandleProducts(ctx context.Context, products []model.Product) error {
	return f(ctx, products)
}

// Config holds refresher configuration.
type Config struct {
	Interval time.Duration       // Refresh interval (default: 15m)
	Timeout  time.Duration       // Per-cycle timeout (default: 30s)
	Products []model.ProductSpec // Products to keep refreshed
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

// Refresher periodically fetches catalog snapshots.
type Refresher struct {
	cfg     Config
	source  CatalogSource
	handler SnapshotHandler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Refresher.
func New(cfg Config, source CatalogSource, handler SnapshotHandler, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cfg:     cfg,
		source:  source,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("catalog refresher started",
		"interval", r.cfg.Interval,
		"products", len(r.cfg.Products),
	)
}

// Stop gracefully shuts down the refresher.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("catalog refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main refresh loop.
func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	// Refresh immediately on start.
	r.refresh()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

// refresh runs one query cycle.
func (r *Refresher) refresh() {
	if len(r.cfg.Products) == 0 {
		r.logger.Debug("no products configured, skipping refresh")
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()

	products, err := r.source.QueryCatalog(ctx, r.cfg.Products)
	if err != nil {
		r.logger.Warn("catalog refresh failed", "error", err)
		return
	}

	if r.handler != nil {
		if err := r.handler.HandleProducts(ctx, products); err != nil {
			r.logger.Warn("snapshot handler failed", "error", err)
			return
		}
	}

	r.logger.Info("catalog refreshed",
		"requested", len(r.cfg.Products),
		"returned", len(products),
		"duration", time.Since(start),
	)
}
