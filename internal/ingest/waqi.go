package ingest

import (
	"context"

	"aqipipe/internal/external"
	"aqipipe/internal/types"
)

// CityFeeder is the slice of the WAQI client this adapter consumes.
type CityFeeder interface {
	CityFeed(ctx context.Context, city string) (*external.WAQISnapshot, error)
}

// WAQISource normalizes the WAQI city feed into a single feature record per
// fetch. WAQI reports on the EPA 0-500 scale and, unlike OpenWeather,
// carries weather readings in the same payload.
type WAQISource struct {
	client CityFeeder
	city   string
}

// NewWAQISource creates the adapter for a fixed city feed.
func NewWAQISource(client CityFeeder, city string) *WAQISource {
	return &WAQISource{client: client, city: city}
}

// Name implements Source.
func (s *WAQISource) Name() string { return "waqi" }

// Scale implements Source.
func (s *WAQISource) Scale() types.AQIScale { return types.ScaleEPA }

// Fetch implements Source.
func (s *WAQISource) Fetch(ctx context.Context) ([]types.FeatureRecord, error) {
	snap, err := s.client.CityFeed(ctx, s.city)
	if err != nil {
		return nil, err
	}

	rec := types.FeatureRecord{
		Timestamp:   snap.Timestamp,
		PM25:        types.FloatOr(snap.PM25, 0),
		PM10:        types.FloatOr(snap.PM10, 0),
		NO2:         types.FloatOr(snap.NO2, 0),
		SO2:         types.FloatOr(snap.SO2, 0),
		CO:          types.FloatOr(snap.CO, 0),
		O3:          types.FloatOr(snap.O3, 0),
		Temperature: types.FloatOr(snap.Temperature, 0),
		Humidity:    types.FloatOr(snap.Humidity, 0),
		Pressure:    types.FloatOr(snap.Pressure, types.DefaultPressureHPa),
		AQI:         snap.AQI,
		Category:    types.CategoryFor(snap.AQI, types.ScaleEPA),
		Scale:       types.ScaleEPA,
		Source:      s.Name(),
	}
	return []types.FeatureRecord{rec}, nil
}
