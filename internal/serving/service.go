// Package serving exposes trained AQI regression models for inference, both
// as an in-process service and over HTTP. It predicts against the most recent
// observation in the feature store or against an upstream forecast horizon
// aligned into daily feature rows.
package serving

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"aqipipe/internal/align"
	"aqipipe/internal/model"
	"aqipipe/internal/types"
)

// ModelLoader resolves the current model artifact. Matches the registry
// but is defined locally to avoid tight coupling.
type ModelLoader interface {
	LoadLatest() (*model.Artifact, error)
}

// LatestReader reads the most recent observation from the feature store.
type LatestReader interface {
	Latest(ctx context.Context) (*types.FeatureRecord, error)
}

// PollutionForecaster fetches the upstream pollution forecast for a point.
type PollutionForecaster interface {
	PollutionForecast(ctx context.Context, lat, lon float64) ([]types.PollutionPoint, error)
}

// WeatherForecaster fetches the upstream weather forecast for a point.
type WeatherForecaster interface {
	WeatherForecast(ctx context.Context, lat, lon float64) ([]types.WeatherPoint, error)
}

// Prediction is a single model inference result. The category is derived from
// the rounded AQI value on the service's configured scale.
type Prediction struct {
	Timestamp time.Time      `json:"timestamp"`
	AQI       float64        `json:"aqi"`
	Category  string         `json:"category"`
	Scale     types.AQIScale `json:"scale"`
}

// Service wires the model registry, feature store, and upstream forecast
// clients into the prediction operations.
type Service struct {
	models    ModelLoader
	store     LatestReader
	pollution PollutionForecaster
	weather   WeatherForecaster
	scale     types.AQIScale
	logger    *slog.Logger
	nowFn     func() time.Time
}

// NewService creates a prediction service. The scale controls how predicted
// AQI values are bucketed into categories.
func NewService(
	models ModelLoader,
	store LatestReader,
	pollution PollutionForecaster,
	weather WeatherForecaster,
	scale types.AQIScale,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		models:    models,
		store:     store,
		pollution: pollution,
		weather:   weather,
		scale:     scale,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// PredictLatest runs the current model against the most recent observation in
// the feature store.
func (s *Service) PredictLatest(ctx context.Context) (*Prediction, error) {
	artifact, err := s.loadArtifact()
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Latest(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.predictRecord(artifact, rec)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PredictForecast fetches the pollution and weather forecasts for the given
// point, aligns them into one feature row per upcoming calendar day, and runs
// the current model against each row. It returns exactly days predictions,
// starting tomorrow.
func (s *Service) PredictForecast(ctx context.Context, lat, lon float64, days int) ([]Prediction, error) {
	artifact, err := s.loadArtifact()
	if err != nil {
		return nil, err
	}

	var (
		pollution []types.PollutionPoint
		weather   []types.WeatherPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pollution, err = s.pollution.PollutionForecast(gctx, lat, lon)
		return err
	})
	g.Go(func() error {
		var err error
		weather, err = s.weather.WeatherForecast(gctx, lat, lon)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := align.Forecast(pollution, weather, s.nowFn(), days)
	predictions := make([]Prediction, 0, len(rows))
	for i := range rows {
		p, err := s.predictRecord(artifact, &rows[i])
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}

	s.logger.Debug("forecast predictions computed",
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
		slog.Int("days", len(predictions)),
	)
	return predictions, nil
}

// loadArtifact fetches the current model and verifies it was trained on the
// feature schema this service feeds it. Loading on every call means a newly
// registered model is picked up without a restart.
func (s *Service) loadArtifact() (*model.Artifact, error) {
	artifact, err := s.models.LoadLatest()
	if err != nil {
		return nil, err
	}
	if !artifact.ExpectsSchema(types.FeatureNames()) {
		return nil, types.NewAppError(
			types.ErrCodeSchemaMismatch,
			"registered model was trained on a different feature schema",
			nil,
		)
	}
	return artifact, nil
}

func (s *Service) predictRecord(artifact *model.Artifact, rec *types.FeatureRecord) (Prediction, error) {
	y, err := artifact.Predict(rec.FeatureVector())
	if err != nil {
		return Prediction{}, err
	}
	rounded := int(math.Round(y))
	return Prediction{
		Timestamp: rec.Timestamp,
		AQI:       y,
		Category:  types.CategoryFor(&rounded, s.scale),
		Scale:     s.scale,
	}, nil
}
