// Package config defines the configuration for the air quality pipeline.
// Configuration is loaded once at process start and is immutable thereafter.
// It follows 12-Factor principles: all values come from the environment (or
// a local .env file), credentials are never given literal defaults in code,
// and a missing required key is an explicit startup failure.
package config

import (
	"time"

	"aqipipe/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"aqipipe"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Database DatabaseConfig
	Upstream UpstreamConfig
	Location LocationConfig
	Model    ModelConfig
}

// ServerConfig holds the optional HTTP prediction surface settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds feature store connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// UpstreamConfig holds provider endpoints, credentials and the shared call
// timeout. API keys have no defaults; entry points that need one must call
// the corresponding Require method and fail fast when it is absent.
type UpstreamConfig struct {
	OpenWeatherAPIKey SecretString `envconfig:"OPENWEATHER_API_KEY"`
	OpenWeatherURL    string       `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org"`

	WAQIToken SecretString `envconfig:"WAQI_API_TOKEN"`
	WAQIURL   string       `envconfig:"WAQI_BASE_URL" default:"https://api.waqi.info"`

	GeocoderAPIKey SecretString `envconfig:"GEOCODER_API_KEY"`

	Timeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

// LocationConfig holds the default observation location, overridable per run
// via flags.
type LocationConfig struct {
	Lat  float64 `envconfig:"DEFAULT_LAT" default:"24.13"`
	Lon  float64 `envconfig:"DEFAULT_LON" default:"89.46"`
	City string  `envconfig:"DEFAULT_CITY" default:"Assam"`
}

// ModelConfig holds model registry and forecast horizon settings.
type ModelConfig struct {
	Dir          string `envconfig:"MODEL_DIR" default:"models"`
	ForecastDays int    `envconfig:"FORECAST_DAYS" default:"3" validate:"min=1,max=7"`
}

// RequireOpenWeatherKey fails when no OpenWeather API key is configured.
func (c UpstreamConfig) RequireOpenWeatherKey() error {
	if c.OpenWeatherAPIKey.IsEmpty() {
		return types.NewAppError(types.ErrCodeConfigInvalid, "OPENWEATHER_API_KEY is not set", nil)
	}
	return nil
}

// RequireWAQIToken fails when no WAQI API token is configured.
func (c UpstreamConfig) RequireWAQIToken() error {
	if c.WAQIToken.IsEmpty() {
		return types.NewAppError(types.ErrCodeConfigInvalid, "WAQI_API_TOKEN is not set", nil)
	}
	return nil
}

// RequireGeocoderKey fails when no geocoder API key is configured.
func (c UpstreamConfig) RequireGeocoderKey() error {
	if c.GeocoderAPIKey.IsEmpty() {
		return types.NewAppError(types.ErrCodeConfigInvalid, "GEOCODER_API_KEY is not set", nil)
	}
	return nil
}
