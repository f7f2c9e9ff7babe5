// Package main is the entrypoint for the ingestion job.
//
// Each run fetches observations from one configured source (OpenWeather
// pollution forecast, WAQI city feed, or the synthetic generator) and appends
// them to the feature store. The job is scheduled externally (cron or
// equivalent); a transient upstream failure is logged and the run exits
// cleanly so the next tick can retry.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqipipe/internal/config"
	"aqipipe/internal/external"
	"aqipipe/internal/ingest"
	"aqipipe/internal/store"
	"aqipipe/internal/types"
)

func main() {
	var (
		sourceName = flag.String("source", "openweather", "observation source: openweather, waqi, or synthetic")
		lat        = flag.Float64("lat", math.NaN(), "latitude override (defaults to DEFAULT_LAT)")
		lon        = flag.Float64("lon", math.NaN(), "longitude override (defaults to DEFAULT_LON)")
		city       = flag.String("city", "", "city name for the waqi source (defaults to DEFAULT_CITY)")
		state      = flag.String("state", "", "state/region to geocode into lat/lon (overrides -lat/-lon)")
		country    = flag.String("country", "India", "country used when geocoding -state")
		daysBack   = flag.Int("days-back", 30, "synthetic source: number of past daily records")
		futureDays = flag.Int("future-days", 3, "synthetic source: number of future daily records")
		seed       = flag.Int64("seed", 1, "synthetic source: random seed")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg).With(
		slog.String("run_id", uuid.NewString()),
		slog.String("source", *sourceName),
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	featureStore := store.NewFeatureStore(pool)
	if err := featureStore.Init(ctx); err != nil {
		logger.Error("failed to initialize feature store", "error", err)
		os.Exit(1)
	}

	src, err := buildSource(cfg, *sourceName, *lat, *lon, *city, *state, *country, *daysBack, *futureDays, *seed, logger)
	if err != nil {
		logger.Error("failed to build source", "error", err)
		os.Exit(1)
	}

	records, err := src.Fetch(ctx)
	if err != nil {
		// Upstream trouble is expected now and then; skip this tick rather
		// than flag the whole run as failed.
		if isUpstreamError(err) {
			logger.Warn("upstream fetch failed, skipping run", "error", err)
			return
		}
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}

	appended := 0
	for i := range records {
		if err := featureStore.Append(ctx, &records[i]); err != nil {
			logger.Error("failed to append record", "error", err, slog.Time("ts", records[i].Timestamp))
			os.Exit(1)
		}
		appended++
	}

	logger.Info("ingestion run complete", slog.Int("records", appended))
}

// buildSource wires the source selected by -source, resolving location from
// flags, geocoding, or configured defaults.
func buildSource(
	cfg *config.Config,
	name string,
	lat, lon float64,
	city, state, country string,
	daysBack, futureDays int,
	seed int64,
	logger *slog.Logger,
) (ingest.Source, error) {
	switch name {
	case "openweather":
		if err := cfg.Upstream.RequireOpenWeatherKey(); err != nil {
			return nil, err
		}
		resolvedLat, resolvedLon, err := resolveLocation(cfg, lat, lon, state, country, logger)
		if err != nil {
			return nil, err
		}
		client := external.NewOpenWeatherClient(
			newBaseClient(cfg, "openweather"),
			cfg.Upstream.OpenWeatherURL,
			cfg.Upstream.OpenWeatherAPIKey,
		)
		return ingest.NewOpenWeatherSource(client, resolvedLat, resolvedLon), nil

	case "waqi":
		if err := cfg.Upstream.RequireWAQIToken(); err != nil {
			return nil, err
		}
		if city == "" {
			city = cfg.Location.City
		}
		client := external.NewWAQIClient(
			newBaseClient(cfg, "waqi"),
			cfg.Upstream.WAQIURL,
			cfg.Upstream.WAQIToken,
		)
		return ingest.NewWAQISource(client, city), nil

	case "synthetic":
		return ingest.NewSyntheticSource(daysBack, futureDays, seed), nil

	default:
		return nil, errors.New("unknown source: " + name)
	}
}

// resolveLocation picks the observation point: -state geocoding wins, then
// explicit -lat/-lon flags, then the configured defaults.
func resolveLocation(cfg *config.Config, lat, lon float64, state, country string, logger *slog.Logger) (float64, float64, error) {
	if state != "" {
		if err := cfg.Upstream.RequireGeocoderKey(); err != nil {
			return 0, 0, err
		}
		g := external.NewGeocoder(cfg.Upstream.GeocoderAPIKey)
		resolvedLat, resolvedLon, err := g.Resolve(state, country)
		if err != nil {
			return 0, 0, err
		}
		logger.Info("geocoded location",
			slog.String("state", state),
			slog.Float64("lat", resolvedLat),
			slog.Float64("lon", resolvedLon),
		)
		return resolvedLat, resolvedLon, nil
	}
	if math.IsNaN(lat) {
		lat = cfg.Location.Lat
	}
	if math.IsNaN(lon) {
		lon = cfg.Location.Lon
	}
	return lat, lon, nil
}

func newBaseClient(cfg *config.Config, breakerName string) *external.BaseClient {
	return external.NewBaseClient(
		&http.Client{Timeout: cfg.Upstream.Timeout},
		breakerName,
		external.DefaultRetryPolicy(),
		"aqipipe-ingest/1.0",
	)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		slog.String("service", cfg.Service),
		slog.String("env", cfg.Environment),
	)
}

func isUpstreamError(err error) bool {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == types.ErrCodeUpstreamTransport || appErr.Code == types.ErrCodeUpstreamSchema
}
