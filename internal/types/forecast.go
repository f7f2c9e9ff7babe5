package types

import "time"

// PollutionPoint is one entry of an upstream pollution forecast sequence.
// Component fields are nil when the provider omitted the reading; the
// consumer (adapter or aligner) is responsible for defaulting.
type PollutionPoint struct {
	Timestamp time.Time

	PM25 *float64
	PM10 *float64
	NO2  *float64
	SO2  *float64
	CO   *float64
	O3   *float64

	// AQI is the provider's own index for the point, when reported.
	AQI *int
}

// WeatherPoint is one entry of an upstream weather forecast sequence
// (typically 3-hourly). Fields are nil when the provider omitted them.
type WeatherPoint struct {
	Timestamp time.Time

	Temperature *float64
	Humidity    *float64
	Pressure    *float64
}
