package ingest

import (
	"context"

	"aqipipe/internal/types"
)

// PollutionForecaster is the slice of the OpenWeather client this adapter
// consumes.
type PollutionForecaster interface {
	PollutionForecast(ctx context.Context, lat, lon float64) ([]types.PollutionPoint, error)
}

// OpenWeatherSource normalizes the OpenWeather air_pollution forecast into
// feature records: one record per forecast list entry. OpenWeather reports
// pollutants only, so the weather fields take their documented defaults, and
// its AQI is on the 1-5 index scale.
type OpenWeatherSource struct {
	client PollutionForecaster
	lat    float64
	lon    float64
}

// NewOpenWeatherSource creates the adapter for a fixed location.
func NewOpenWeatherSource(client PollutionForecaster, lat, lon float64) *OpenWeatherSource {
	return &OpenWeatherSource{client: client, lat: lat, lon: lon}
}

// Name implements Source.
func (s *OpenWeatherSource) Name() string { return "openweather" }

// Scale implements Source.
func (s *OpenWeatherSource) Scale() types.AQIScale { return types.ScaleOpenWeather }

// Fetch implements Source.
func (s *OpenWeatherSource) Fetch(ctx context.Context) ([]types.FeatureRecord, error) {
	points, err := s.client.PollutionForecast(ctx, s.lat, s.lon)
	if err != nil {
		return nil, err
	}

	records := make([]types.FeatureRecord, 0, len(points))
	for _, p := range points {
		records = append(records, types.FeatureRecord{
			Timestamp:   p.Timestamp,
			PM25:        types.FloatOr(p.PM25, 0),
			PM10:        types.FloatOr(p.PM10, 0),
			NO2:         types.FloatOr(p.NO2, 0),
			SO2:         types.FloatOr(p.SO2, 0),
			CO:          types.FloatOr(p.CO, 0),
			O3:          types.FloatOr(p.O3, 0),
			Temperature: 0, // not provided by this API
			Humidity:    0, // not provided by this API
			Pressure:    types.DefaultPressureHPa,
			AQI:         p.AQI,
			Category:    types.CategoryFor(p.AQI, types.ScaleOpenWeather),
			Scale:       types.ScaleOpenWeather,
			Source:      s.Name(),
		})
	}
	return records, nil
}
