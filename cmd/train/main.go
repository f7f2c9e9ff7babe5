// Package main is the entrypoint for the training job.
//
// Each run reads every labeled observation from the feature store up to now,
// fits a linear AQI regression on it, and registers the resulting artifact in
// the model registry, repointing the latest alias. A run with no usable
// training data exits with an error so the scheduler surfaces it.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqipipe/internal/config"
	"aqipipe/internal/model"
	"aqipipe/internal/registry"
	"aqipipe/internal/store"
)

func main() {
	modelDir := flag.String("model-dir", "", "model registry directory (defaults to MODEL_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("service", cfg.Service),
		slog.String("env", cfg.Environment),
		slog.String("run_id", uuid.NewString()),
	)

	dir := cfg.Model.Dir
	if *modelDir != "" {
		dir = *modelDir
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	featureStore := store.NewFeatureStore(pool)

	records, err := featureStore.AllHistorical(ctx, time.Now().UTC())
	if err != nil {
		logger.Error("failed to read training data", "error", err)
		os.Exit(1)
	}
	logger.Info("training data loaded", slog.Int("records", len(records)))

	artifact, err := model.Train(records)
	if err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
	if artifact.Degenerate {
		logger.Warn("training data too sparse for a full fit, registered intercept-only model")
	}

	version, err := registry.New(dir).Register(artifact)
	if err != nil {
		logger.Error("failed to register model", "error", err)
		os.Exit(1)
	}

	logger.Info("model registered",
		slog.String("version", version),
		slog.Float64("mse", artifact.Metrics.MSE),
		slog.Float64("r2", artifact.Metrics.R2),
	)
}
