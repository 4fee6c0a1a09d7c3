package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axisgrid/concentra/internal/config"
	"github.com/axisgrid/concentra/internal/dataset"
	"github.com/axisgrid/concentra/internal/httpapi"
	"github.com/axisgrid/concentra/internal/logging"
	"github.com/axisgrid/concentra/internal/scenario/schema"
	"github.com/axisgrid/concentra/internal/scenario/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	Long:  "Serve the dashboard API over HTTP, configured from CONCENTRA_* environment variables.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fetcher, err := dataset.NewHTTPFetcher(cfg.DatasetURL, nil)
	if err != nil {
		return err
	}
	source, err := dataset.NewSource(dataset.SourceConfig{
		Fetcher: fetcher,
		Cache:   dataset.NewCache(cfg.DatasetCacheTTL, nil),
		Logger:  logger.Named("dataset"),
	})
	if err != nil {
		return err
	}
	client, err := transport.NewHTTP(transport.Config{
		Endpoint:     cfg.SimulationURL,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "X-Api-Key",
	})
	if err != nil {
		return err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}
	server, err := httpapi.New(httpapi.Config{
		Source:    source,
		Transport: client,
		Validator: validator,
		Logger:    logger.Named("http"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("listening", zap.String("addr", cfg.ListenAddr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
