package types

// AQIScale identifies which AQI category scale a record's AQI value belongs
// to. Upstream sources use two incompatible scales: OpenWeather reports a
// 1-5 index while WAQI (and the synthetic generator) report the EPA 0-500
// index. The scale is persisted alongside every record and category
// computation always takes it as an explicit parameter; the two scales are
// deliberately never unified.
type AQIScale string

const (
	// ScaleOpenWeather is the OpenWeather air_pollution 1-5 index.
	ScaleOpenWeather AQIScale = "ow_1_5"
	// ScaleEPA is the US EPA 0-500 index.
	ScaleEPA AQIScale = "epa_0_500"
)

// CategoryUnknown is the category assigned when no AQI value is present or
// the value falls outside its scale.
const CategoryUnknown = "Unknown"

// CategoryFor derives the ordinal category label for an AQI value on the
// given scale. A nil AQI always yields CategoryUnknown. The function is pure:
// the label depends only on the value and the scale.
func CategoryFor(aqi *int, scale AQIScale) string {
	if aqi == nil {
		return CategoryUnknown
	}
	switch scale {
	case ScaleOpenWeather:
		return openWeatherCategory(*aqi)
	case ScaleEPA:
		return epaCategory(*aqi)
	default:
		return CategoryUnknown
	}
}

// openWeatherCategory maps the OpenWeather 1-5 index to its label.
func openWeatherCategory(aqi int) string {
	switch aqi {
	case 1:
		return "Good"
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return CategoryUnknown
	}
}

// epaCategory maps the EPA 0-500 index to its label.
func epaCategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
