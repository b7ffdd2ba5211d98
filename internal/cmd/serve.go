package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofutures/internal/observability"
	"github.com/3leaps/gofutures/internal/server"
	"github.com/3leaps/gofutures/internal/server/handlers"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/provider"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the contract calendar over HTTP",
	Long: `Start an HTTP server exposing the contract calendar and health endpoints.

Routes:
  GET /v1/symbols                     supported assets
  GET /v1/contracts?symbols=CL&start=2023-01-01&end=2023-12-31
  GET /health, /health/live, /health/ready, /health/startup
  GET /version

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost    string
	servePort    int
	serveStorage string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&serveStorage, "storage", "", "Storage location checked by readiness (default from config)")
}

// calendarHealthChecker fails when no asset rules are registered.
type calendarHealthChecker struct{}

func (calendarHealthChecker) CheckHealth(ctx context.Context) error {
	if len(calendar.Symbols()) == 0 {
		return errors.New("no asset rules registered")
	}
	return nil
}

// storageHealthChecker lists at most one object from the store.
type storageHealthChecker struct {
	store provider.Store
	err   error
}

func (c storageHealthChecker) CheckHealth(ctx context.Context) error {
	if c.err != nil {
		return fmt.Errorf("storage unavailable: %w", c.err)
	}
	if _, err := c.store.List(ctx, provider.ListOptions{MaxKeys: 1}); err != nil {
		return fmt.Errorf("storage list failed: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := currentConfig()
	log := observability.CLILogger

	host, port := cfg.Server.Host, cfg.Server.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort != 0 {
		port = servePort
	}
	if port < 0 || port > 65535 {
		return exitError(foundry.ExitInvalidArgument, "Invalid --port value", fmt.Errorf("port out of range: %d", port))
	}

	storage := storageFromConfig(cfg.Storage)
	if serveStorage != "" {
		storage.URI = serveStorage
	}

	health := handlers.InitHealthManager(versionInfo.Version)
	health.RegisterChecker("calendar", calendarHealthChecker{})

	store, loc, err := openStore(ctx, storage)
	if err != nil {
		log.Warn("Storage unavailable; readiness will report unhealthy", zap.Error(err))
		health.RegisterChecker("storage", storageHealthChecker{err: err})
	} else {
		defer func() { _ = store.Close() }()
		health.RegisterChecker("storage", storageHealthChecker{store: store})
		log.Debug("Storage opened", zap.String("storage", loc.String()))
	}

	srv := server.New(host, port).
		WithLogger(log).
		WithTimeouts(server.Timeouts{
			Read:     cfg.Server.ReadTimeout,
			Write:    cfg.Server.WriteTimeout,
			Idle:     cfg.Server.IdleTimeout,
			Shutdown: cfg.Server.ShutdownTimeout,
		})

	log.Info("Starting server",
		zap.String("addr", srv.Addr()),
		zap.String("version", versionInfo.Version))
	if err := srv.Start(ctx); err != nil {
		log.Error("Server failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	log.Info("Server stopped")
	return nil
}
