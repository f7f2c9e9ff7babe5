// Package main is the entrypoint for the prediction surface.
//
// With no flags it runs the latest registered model against the most recent
// stored observation and prints the result. With -forecast it predicts one
// AQI value per upcoming calendar day from the upstream forecasts. With
// -serve it exposes the same operations over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqipipe/internal/config"
	"aqipipe/internal/external"
	"aqipipe/internal/registry"
	"aqipipe/internal/serving"
	"aqipipe/internal/store"
	"aqipipe/internal/types"
)

func main() {
	var (
		forecast = flag.Bool("forecast", false, "predict per-day AQI from upstream forecasts instead of the latest observation")
		days     = flag.Int("days", 0, "forecast horizon in days (defaults to FORECAST_DAYS)")
		lat      = flag.Float64("lat", math.NaN(), "latitude override (defaults to DEFAULT_LAT)")
		lon      = flag.Float64("lon", math.NaN(), "longitude override (defaults to DEFAULT_LON)")
		state    = flag.String("state", "", "state/region to geocode into lat/lon (overrides -lat/-lon)")
		country  = flag.String("country", "India", "country used when geocoding -state")
		serve    = flag.Bool("serve", false, "serve predictions over HTTP instead of printing once")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg).With(slog.String("run_id", uuid.NewString()))

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	owClient := external.NewOpenWeatherClient(
		external.NewBaseClient(
			&http.Client{Timeout: cfg.Upstream.Timeout},
			"openweather",
			external.DefaultRetryPolicy(),
			"aqipipe-predict/1.0",
		),
		cfg.Upstream.OpenWeatherURL,
		cfg.Upstream.OpenWeatherAPIKey,
	)

	svc := serving.NewService(
		registry.New(cfg.Model.Dir),
		store.NewFeatureStore(pool),
		owClient,
		owClient,
		types.ScaleEPA,
		logger,
	)

	if *serve {
		handler := serving.NewHandler(svc, cfg.Location.Lat, cfg.Location.Lon, cfg.Model.ForecastDays, logger)
		addr := ":" + cfg.Server.Port
		logger.Info("prediction server listening", slog.String("addr", addr))
		if err := http.ListenAndServe(addr, handler.Router()); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if *forecast {
		if err := cfg.Upstream.RequireOpenWeatherKey(); err != nil {
			logger.Error("missing configuration", "error", err)
			os.Exit(1)
		}
		resolvedLat, resolvedLon, err := resolveLocation(cfg, *lat, *lon, *state, *country, logger)
		if err != nil {
			logger.Error("failed to resolve location", "error", err)
			os.Exit(1)
		}
		horizon := cfg.Model.ForecastDays
		if *days > 0 {
			horizon = *days
		}

		predictions, err := svc.PredictForecast(ctx, resolvedLat, resolvedLon, horizon)
		if err != nil {
			logger.Error("forecast prediction failed", "error", err)
			os.Exit(1)
		}
		printJSON(logger, predictions)
		return
	}

	prediction, err := svc.PredictLatest(ctx)
	if err != nil {
		logger.Error("prediction failed", "error", err)
		os.Exit(1)
	}
	printJSON(logger, prediction)
}

// resolveLocation picks the forecast point: -state geocoding wins, then
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

func printJSON(logger *slog.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("failed to encode output", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With(
		slog.String("service", cfg.Service),
		slog.String("env", cfg.Environment),
	)
}
