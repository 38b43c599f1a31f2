// Command exoclimd watches a directory of gridded model output, normalizes
// every file into the configured longitude convention with complete bounds
// and the right planetary radius, and optionally publishes a summary of each
// processed run to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/perihelab/exoclim/internal/adapter/http"
	kafkaadapter "github.com/perihelab/exoclim/internal/adapter/kafka"
	"github.com/perihelab/exoclim/internal/adapter/netcdf"
	"github.com/perihelab/exoclim/internal/config"
	"github.com/perihelab/exoclim/internal/observability"
	"github.com/perihelab/exoclim/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	loader := netcdf.NewLoader(logger)

	// Summary publishing is feature-flagged via KAFKA_ENABLED.
	var sink pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		sink = writer
		metrics.SinkEnabled.Set(1)
		logger.Info("kafka summary sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka summary sink disabled")
	}

	p := pipeline.New(loader, sink, logger, metrics, pipeline.Options{
		DataDir:        cfg.DataDir,
		FilePattern:    cfg.FilePattern,
		Planet:         cfg.Planet,
		TargetLonMin:   cfg.TargetLonMin,
		SettleInterval: cfg.SettleInterval,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
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
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
