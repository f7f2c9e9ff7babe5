// Package align merges two independently-paced forecast streams (pollution
// points at arbitrary cadence, weather points at a fixed cadence such as
// 3-hourly) into one inference-ready feature record per future UTC calendar
// day. The package is pure: no I/O, no clocks, fully deterministic.
package align

import (
	"time"

	"aqipipe/internal/types"
)

// DefaultHorizonDays is the contract default forecast horizon.
const DefaultHorizonDays = 3

// Forecast buckets both input sequences by UTC calendar day and emits exactly
// `days` records, one per consecutive day starting tomorrow relative to
// `now`, in increasing date order. For each day the first entry of each
// sequence whose UTC date equals the target day wins (earliest position in
// the sequence, a deterministic tie-break for duplicate dates). Empty
// buckets degrade to defaults: all pollutants 0.0, temperature/humidity 0.0,
// pressure 1013.0. The result rows carry no AQI label.
//
// Forecast never fails; sparse or empty inputs only produce more defaulted
// fields.
func Forecast(pollution []types.PollutionPoint, weather []types.WeatherPoint, now time.Time, days int) []types.FeatureRecord {
	if days <= 0 {
		days = DefaultHorizonDays
	}

	today := toUTCDate(now)

	records := make([]types.FeatureRecord, 0, days)
	for i := 1; i <= days; i++ {
		day := today.AddDate(0, 0, i)
		rec := types.FeatureRecord{
			Timestamp: day,
			Pressure:  types.DefaultPressureHPa,
			Category:  types.CategoryUnknown,
		}

		if p, ok := firstPollutionOn(pollution, day); ok {
			rec.PM25 = types.FloatOr(p.PM25, 0)
			rec.PM10 = types.FloatOr(p.PM10, 0)
			rec.NO2 = types.FloatOr(p.NO2, 0)
			rec.SO2 = types.FloatOr(p.SO2, 0)
			rec.CO = types.FloatOr(p.CO, 0)
			rec.O3 = types.FloatOr(p.O3, 0)
		}

		if w, ok := firstWeatherOn(weather, day); ok {
			rec.Temperature = types.FloatOr(w.Temperature, 0)
			rec.Humidity = types.FloatOr(w.Humidity, 0)
			rec.Pressure = types.FloatOr(w.Pressure, types.DefaultPressureHPa)
		}

		records = append(records, rec)
	}
	return records
}

// firstPollutionOn returns the first sequence entry on the given UTC day.
func firstPollutionOn(points []types.PollutionPoint, day time.Time) (types.PollutionPoint, bool) {
	for _, p := range points {
		if toUTCDate(p.Timestamp).Equal(day) {
			return p, true
		}
	}
	return types.PollutionPoint{}, false
}

// firstWeatherOn returns the first sequence entry on the given UTC day.
func firstWeatherOn(points []types.WeatherPoint, day time.Time) (types.WeatherPoint, bool) {
	for _, p := range points {
		if toUTCDate(p.Timestamp).Equal(day) {
			return p, true
		}
	}
	return types.WeatherPoint{}, false
}

// toUTCDate truncates an instant to its UTC calendar date (midnight UTC).
func toUTCDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
