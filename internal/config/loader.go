// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent calendar-day drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Validate the struct using go-playground/validator.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"aqipipe/internal/types"
)

// Load loads and validates the pipeline configuration from the environment.
// Any parsing or validation failure is returned as a config_invalid AppError;
// callers are expected to treat it as fatal.
func Load() (*Config, error) {
	// All timestamp bucketing in the pipeline is defined in UTC calendar
	// days; pinning the process timezone removes a whole class of drift.
	time.Local = time.UTC

	// godotenv.Load silently succeeds when no .env file exists and never
	// overrides variables already present in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalid, "failed to process environment configuration", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalid, "configuration validation failed", err)
	}

	return &cfg, nil
}
