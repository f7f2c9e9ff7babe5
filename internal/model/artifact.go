// Package model implements the trainable AQI regressor: fitting a linear
// model over the nine-feature vector, evaluating it, and serializing the
// result as an immutable artifact the registry can persist.
package model

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"

	"aqipipe/internal/types"
)

// Metrics holds the held-out evaluation of a trained artifact.
type Metrics struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// Artifact is an immutable trained model: the ordered feature schema it
// expects plus the fitted linear coefficients. Once registered it is never
// modified.
type Artifact struct {
	// FeatureNames is the exact input schema, in order. Prediction rejects
	// any input that disagrees with it.
	FeatureNames []string `json:"feature_names"`

	// Weights holds one coefficient per feature, in FeatureNames order.
	Weights []float64 `json:"weights"`
	// Bias is the intercept term.
	Bias float64 `json:"bias"`

	Metrics   Metrics   `json:"metrics"`
	TrainedAt time.Time `json:"trained_at"`

	// Degenerate marks an intercept-only fallback fit (too little data or
	// too little label variance for the solver). Such artifacts are still
	// registered and served; the flag exists so callers can warn.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Predict scores one feature vector. The vector must have exactly one value
// per expected feature, in schema order.
func (a *Artifact) Predict(features []float64) (float64, error) {
	if len(features) != len(a.FeatureNames) {
		return 0, types.NewAppError(
			types.ErrCodeSchemaMismatch,
			fmt.Sprintf("model expects %d features, got %d", len(a.FeatureNames), len(features)),
			nil,
		)
	}

	pred := a.Bias
	for i, w := range a.Weights {
		pred += w * features[i]
	}
	return pred, nil
}

// ExpectsSchema reports whether the artifact's input schema matches the
// given ordered feature names exactly.
func (a *Artifact) ExpectsSchema(names []string) bool {
	if len(a.FeatureNames) != len(names) {
		return false
	}
	for i, name := range names {
		if a.FeatureNames[i] != name {
			return false
		}
	}
	return true
}

// Encode writes the artifact as gzip-compressed JSON.
func (a *Artifact) Encode(w io.Writer) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	return nil
}

// Decode reads a gzip-compressed JSON artifact.
func Decode(r io.Reader) (*Artifact, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer zr.Close()

	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}
