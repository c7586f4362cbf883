// Command etl runs the air quality pipeline: discover sources, extract raw
// observations into the bronze layer, normalize to the canonical silver
// schema, validate, and export year/month partitioned CSV files.
//
// With RUN_INTERVAL unset the pipeline runs once and exits nonzero when any
// validation issue was reported. With RUN_INTERVAL set it keeps re-running on
// that cadence and serves /healthz, /readyz, and /metrics until SIGINT/SIGTERM.
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

	httpadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/postgres"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	"github.com/couchcryptid/air-quality-etl/internal/source"
)

func main() {
	godotenv.Load() //nolint:errcheck // .env is optional

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	sources, err := source.FromSpecs(cfg.Sources, cfg.FetchTimeout, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional sinks, enabled by configuration.
	var sinks []pipeline.RecordSink
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sinks = append(sinks, kafkaWriter)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}
	var store *postgres.Store
	if cfg.PostgresEnabled {
		store, err = postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres sink", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, store)
		logger.Info("postgres sink enabled")
	}

	p := pipeline.New(cfg, sources, sinks, logger, metrics)

	exitCode := 0
	if cfg.RunInterval == 0 {
		report, err := p.RunOnce(ctx)
		switch {
		case err != nil:
			logger.Error("pipeline failed", "error", err)
			exitCode = 1
		case report.IssueCount() > 0:
			logger.Error("validation reported issues", "issues", report.IssueCount())
			exitCode = 1
		}
	} else {
		runForever(ctx, cfg, p, logger)
	}

	closeSinks(kafkaWriter, store, logger)
	os.Exit(exitCode)
}

// runForever serves the operational endpoints while the pipeline re-runs on
// its interval, then shuts both down gracefully.
func runForever(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := p.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

func closeSinks(kafkaWriter *kafkaadapter.Writer, store *postgres.Store, logger *slog.Logger) {
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		store.Close()
	}
}
