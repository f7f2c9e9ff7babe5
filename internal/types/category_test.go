package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCategoryFor_EPAScale(t *testing.T) {
	tests := []struct {
		name string
		aqi  int
		want string
	}{
		{"zero", 0, "Good"},
		{"good upper bound", 50, "Good"},
		{"moderate lower bound", 51, "Moderate"},
		{"moderate upper bound", 100, "Moderate"},
		{"sensitive lower bound", 101, "Unhealthy for Sensitive Groups"},
		{"sensitive upper bound", 150, "Unhealthy for Sensitive Groups"},
		{"unhealthy lower bound", 151, "Unhealthy"},
		{"unhealthy upper bound", 200, "Unhealthy"},
		{"very unhealthy lower bound", 201, "Very Unhealthy"},
		{"very unhealthy upper bound", 300, "Very Unhealthy"},
		{"hazardous", 301, "Hazardous"},
		{"hazardous extreme", 500, "Hazardous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(intPtr(tt.aqi), ScaleEPA))
		})
	}
}

func TestCategoryFor_OpenWeatherScale(t *testing.T) {
	tests := []struct {
		name string
		aqi  int
		want string
	}{
		{"good", 1, "Good"},
		{"fair", 2, "Fair"},
		{"moderate", 3, "Moderate"},
		{"poor", 4, "Poor"},
		{"very poor", 5, "Very Poor"},
		{"below range", 0, CategoryUnknown},
		{"above range", 6, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(intPtr(tt.aqi), ScaleOpenWeather))
		})
	}
}

func TestCategoryFor_NilAQI(t *testing.T) {
	assert.Equal(t, CategoryUnknown, CategoryFor(nil, ScaleEPA))
	assert.Equal(t, CategoryUnknown, CategoryFor(nil, ScaleOpenWeather))
}

func TestCategoryFor_UnknownScale(t *testing.T) {
	assert.Equal(t, CategoryUnknown, CategoryFor(intPtr(75), AQIScale("bogus")))
}

// Severity must be non-decreasing as the EPA index rises across every
// threshold boundary.
func TestCategoryFor_EPAMonotonic(t *testing.T) {
	rank := map[string]int{
		"Good":                           0,
		"Moderate":                       1,
		"Unhealthy for Sensitive Groups": 2,
		"Unhealthy":                      3,
		"Very Unhealthy":                 4,
		"Hazardous":                      5,
	}

	prev := -1
	for aqi := 0; aqi <= 400; aqi++ {
		got, ok := rank[CategoryFor(intPtr(aqi), ScaleEPA)]
		assert.True(t, ok, "aqi %d produced an unranked category", aqi)
		assert.GreaterOrEqual(t, got, prev, "severity regressed at aqi %d", aqi)
		prev = got
	}
}
