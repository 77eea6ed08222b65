package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/glasshouse/glasshouse/internal/clickhouse"
	"github.com/glasshouse/glasshouse/internal/httpserver"
	"github.com/glasshouse/glasshouse/internal/metrics"
)

// runServer connects to ClickHouse, starts the API server and blocks until a
// shutdown signal arrives.
func runServer(cfg appConfig, logger *slog.Logger) error {
	logger.Info("connecting to clickhouse",
		"host", cfg.ClickHouseHost,
		"port", cfg.ClickHousePort,
		"database", cfg.ClickHouseDatabase,
		"secure", cfg.ClickHouseSecure,
	)

	store, err := clickhouse.NewStore(clickhouse.Options{
		Host:            cfg.ClickHouseHost,
		Port:            cfg.ClickHousePort,
		Database:        cfg.ClickHouseDatabase,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		Secure:          cfg.ClickHouseSecure,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		DialTimeout:     cfg.DialTimeout,
		QueryTimeout:    cfg.QueryTimeout,
		MaxQuerySeconds: cfg.MaxQuerySeconds,
	})
	if err != nil {
		return fmt.Errorf("connecting to clickhouse: %w", err)
	}
	defer store.Close()

	m := metrics.NewAPIMetrics()

	srv := httpserver.NewServer(cfg.HTTPAddr, store, logger, m, cfg.CORSOrigins)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	logger.Info("api server listening", "addr", cfg.HTTPAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Use errgroup for goroutine lifecycle management; today it carries the
	// signal wait, and future background work (cache refresh, retention)
	// joins the same group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig.String())
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("run loop exited with error", "error", err)
	}
	signal.Stop(sigCh)

	if err := srv.Stop(); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
	logger.Info("server exited gracefully")
	return nil
}
