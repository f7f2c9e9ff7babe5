package ingest

import (
	"context"
	"math/rand"
	"time"

	"aqipipe/internal/types"
)

// SyntheticSource generates plausible feature records for bootstrapping a
// feature store before any real upstream data exists. It emits one record
// per day: daysBack records into the past and futureDays records into the
// future (the future rows exercise the training-time historical cutoff).
//
// The AQI label is a fixed linear blend of the pollutant draws, so a trained
// model has a real signal to recover.
type SyntheticSource struct {
	daysBack   int
	futureDays int
	rng        *rand.Rand
	nowFn      func() time.Time
}

// NewSyntheticSource creates a generator with a deterministic seed.
func NewSyntheticSource(daysBack, futureDays int, seed int64) *SyntheticSource {
	return &SyntheticSource{
		daysBack:   daysBack,
		futureDays: futureDays,
		rng:        rand.New(rand.NewSource(seed)),
		nowFn:      time.Now,
	}
}

// Name implements Source.
func (s *SyntheticSource) Name() string { return "synthetic" }

// Scale implements Source. The synthetic label follows the EPA 0-500 scale.
func (s *SyntheticSource) Scale() types.AQIScale { return types.ScaleEPA }

// Fetch implements Source. It never fails.
func (s *SyntheticSource) Fetch(_ context.Context) ([]types.FeatureRecord, error) {
	now := s.nowFn().UTC()

	records := make([]types.FeatureRecord, 0, s.daysBack+s.futureDays)
	for i := 0; i < s.daysBack; i++ {
		records = append(records, s.generate(now.AddDate(0, 0, -i)))
	}
	for i := 1; i <= s.futureDays; i++ {
		records = append(records, s.generate(now.AddDate(0, 0, i)))
	}
	return records, nil
}

// generate draws one record at the given instant.
func (s *SyntheticSource) generate(ts time.Time) types.FeatureRecord {
	pm25 := s.uniform(5, 100)
	pm10 := s.uniform(10, 150)
	no2 := s.uniform(5, 80)

	aqi := int(0.5*pm25 + 0.3*pm10 + 0.2*no2)

	return types.FeatureRecord{
		Timestamp:   ts,
		PM25:        pm25,
		PM10:        pm10,
		NO2:         no2,
		SO2:         s.uniform(1, 50),
		CO:          s.uniform(0.1, 3.0),
		O3:          s.uniform(10, 100),
		Temperature: s.uniform(10, 35),
		Humidity:    s.uniform(30, 90),
		Pressure:    s.uniform(980, 1050),
		AQI:         &aqi,
		Category:    types.CategoryFor(&aqi, types.ScaleEPA),
		Scale:       types.ScaleEPA,
		Source:      s.Name(),
	}
}

func (s *SyntheticSource) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
