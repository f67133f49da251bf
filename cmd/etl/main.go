package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog"
	"github.com/couchcryptid/climogram-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climogram-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climogram-etl/internal/config"
	"github.com/couchcryptid/climogram-etl/internal/observability"
	"github.com/couchcryptid/climogram-etl/internal/pipeline"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := catalog.NewClient(cfg.CatalogURL, cfg.CatalogToken, cfg.CatalogTimeout, cfg.CatalogMaxRetries, metrics, logger)
	source := catalog.NewCachedSource(client, cfg.CatalogCacheSize, metrics)
	logger.Info("dataset catalog configured",
		"url", cfg.CatalogURL,
		"timeout", cfg.CatalogTimeout,
		"max_retries", cfg.CatalogMaxRetries,
		"cache_size", cfg.CatalogCacheSize,
		"join_policy", cfg.JoinPolicy,
	)

	aggregator := pipeline.NewAggregator(source, cfg.JoinPolicy, logger, metrics)
	transformer := pipeline.NewTransformer(aggregator, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, cfg.ResultCacheTTL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
