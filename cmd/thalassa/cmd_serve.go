package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pmav99/thalassa/internal/catalog"
	"github.com/pmav99/thalassa/internal/config"
	"github.com/pmav99/thalassa/internal/observability"
	"github.com/pmav99/thalassa/internal/server"
	"github.com/pmav99/thalassa/tiles"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the datasets in a directory over HTTP",
	Long: `Scans the data directory for recognized model output, watches it for
changes and serves a JSON API plus rendered PNGs. Configuration comes
from THALASSA_* environment variables and an optional YAML file pointed
at by THALASSA_CONFIG.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cat := catalog.New(cfg.DataDir, cfg.DatasetCacheSize, logger, metrics)

	var fetcher tiles.Fetcher
	if cfg.TilesEnabled {
		client := tiles.NewClient(cfg.TileBaseURL, cfg.TileTimeout, logger)
		fetcher = tiles.NewCachedFetcher(client, cfg.TileCacheSize, metrics)
		logger.Info("basemap tiles enabled", "base_url", cfg.TileBaseURL, "cache_size", cfg.TileCacheSize)
	} else {
		logger.Info("basemap tiles disabled")
	}

	srv := server.NewServer(cfg.HTTPAddr, cat, fetcher, cfg.RenderCacheSize, logger, metrics)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cat.Refresh(ctx); err != nil {
		return err
	}

	if cfg.WatchEnabled {
		go func() {
			if err := cat.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher error", "error", err)
			}
		}()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
