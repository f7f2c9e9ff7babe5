// Package types defines the shared domain model of the air quality pipeline:
// the canonical feature record every ingestion path must produce, the AQI
// category scales, forecast stream points, and the application error taxonomy.
package types

import "time"

// DefaultPressureHPa is standard atmospheric pressure, substituted when a
// source provides no pressure reading.
const DefaultPressureHPa = 1013.0

// FeatureRecord is the canonical normalized observation/forecast row. The
// nine numeric feature fields are always populated: missing upstream values
// are defaulted by the ingestion adapters or the forecast aligner, never at
// inference time.
type FeatureRecord struct {
	// Timestamp is the record's validity instant in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Pollutant concentrations (ug/m3 except CO in mg/m3); 0.0 when the
	// source had no reading.
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
	O3   float64 `json:"o3"`

	// Weather readings; temperature/humidity default to 0.0, pressure to
	// DefaultPressureHPa.
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`

	// AQI is the target label. Present on historical/training rows, nil on
	// pure inference rows.
	AQI *int `json:"aqi,omitempty"`

	// Category is derived from AQI via the threshold table for Scale;
	// "Unknown" when AQI is nil.
	Category string `json:"category"`

	// Scale tags which AQI category scale this record's AQI/Category belong
	// to. Empty on inference rows that carry no label.
	Scale AQIScale `json:"scale,omitempty"`

	// Source names the ingestion adapter that produced the record.
	Source string `json:"source,omitempty"`
}

// FeatureNames returns the ordered list of model input feature names. The
// order is fixed; trained artifacts record it and the prediction service
// rejects any artifact whose schema disagrees.
func FeatureNames() []string {
	return []string{"pm25", "pm10", "no2", "so2", "co", "o3", "temperature", "humidity", "pressure"}
}

// FeatureVector returns the record's nine feature values in FeatureNames order.
func (r *FeatureRecord) FeatureVector() []float64 {
	return []float64{r.PM25, r.PM10, r.NO2, r.SO2, r.CO, r.O3, r.Temperature, r.Humidity, r.Pressure}
}

// FloatOr dereferences v, substituting def when v is nil. Ingestion adapters
// and the aligner use it to make defaulting total.
func FloatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
