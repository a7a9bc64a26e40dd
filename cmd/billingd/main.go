package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkelly/billgate"
	"github.com/mkelly/billgate/internal/config"
	"github.com/mkelly/billgate/internal/model"
	"github.com/mkelly/billgate/internal/refresh"
	"github.com/mkelly/billgate/internal/store"
	"github.com/mkelly/billgate/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/billingd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting billingd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"service_url", cfg.Service.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := store.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	catalog := store.NewCatalog(pool, logger)

	// Create the billing gateway; its supervisor starts the connection
	// immediately and keeps retrying in the background.
	gateway, err := billgate.GetOrCreate(billgate.Options{
		ServiceURL:         cfg.Service.URL,
		ClientID:           cfg.Instance.ID,
		KeyID:              cfg.Service.KeyID,
		PrivateKeyPath:     cfg.Service.PrivateKeyPath,
		HandshakeTimeout:   cfg.Service.HandshakeTimeout,
		QueryTimeout:       cfg.Service.QueryTimeout,
		WriteTimeout:       cfg.Service.WriteTimeout,
		ReconnectBaseDelay: cfg.Reconnect.BaseDelay,
		ReconnectMaxDelay:  cfg.Reconnect.MaxDelay,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("failed to create billing gateway", "error", err)
		os.Exit(1)
	}

	logger.Info("billing gateway created",
		"state", gateway.ConnectionState(),
	)

	// Start the catalog refresher
	refreshCfg := refresh.DefaultConfig()
	if cfg.Refresh.Interval > 0 {
		refreshCfg.Interval = cfg.Refresh.Interval
	}
	if cfg.Refresh.Timeout > 0 {
		refreshCfg.Timeout = cfg.Refresh.Timeout
	}
	for _, p := range cfg.Refresh.Products {
		refreshCfg.Products = append(refreshCfg.Products, model.ProductSpec{
			ID:   p.ID,
			Type: model.ProductType(p.Type),
		})
	}

	refresher := refresh.New(refreshCfg, gateway, refresh.SnapshotHandlerFunc(catalog.UpsertProducts), logger)
	refresher.Start(ctx)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		refresher.Stop(shutdownCtx)
	}()

	logger.Info("billingd running",
		"instance_id", cfg.Instance.ID,
		"refresh_interval", refreshCfg.Interval,
		"products", len(refreshCfg.Products),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Warn("gateway shutdown timed out", "error", err)
	}

	logger.Info("billingd stopped")
}
