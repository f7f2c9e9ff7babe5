package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqipipe/internal/model"
	"aqipipe/internal/types"
)

func testArtifact(trainedAt time.Time, bias float64) *model.Artifact {
	return &model.Artifact{
		FeatureNames: types.FeatureNames(),
		Weights:      make([]float64, 9),
		Bias:         bias,
		Metrics:      model.Metrics{MSE: 12.34, R2: 0.87},
		TrainedAt:    trainedAt,
	}
}

func TestRegistry_RegisterAndLoadLatest(t *testing.T) {
	r := New(t.TempDir())
	trainedAt := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	version, err := r.Register(testArtifact(trainedAt, 75))
	require.NoError(t, err)
	assert.Equal(t, "aqi_regressor_20260830140509_mse12.34_r20.87.json.gz", version)

	loaded, err := r.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, 75.0, loaded.Bias)
	assert.Equal(t, types.FeatureNames(), loaded.FeatureNames)
	assert.Equal(t, model.Metrics{MSE: 12.34, R2: 0.87}, loaded.Metrics)
}

func TestRegistry_LoadLatest_NeverRegistered(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist-yet"))

	_, err := r.LoadLatest()
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeModelNotRegistered, appErr.Code)
}

// A new registration repoints the alias while the prior versioned blob is
// retained for audit.
func TestRegistry_SupersedeKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	v1, err := r.Register(testArtifact(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), 50))
	require.NoError(t, err)
	v2, err := r.Register(testArtifact(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), 90))
	require.NoError(t, err)
	require.NotEqual(t, v1, v2)

	latest, err := r.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, 90.0, latest.Bias)

	old, err := r.LoadVersion(v1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, old.Bias)
}

// The latest alias always tracks the most recent registration, even when its
// metrics are worse than a prior artifact's (no automatic rollback).
func TestRegistry_LatestIsMostRecentNotBest(t *testing.T) {
	r := New(t.TempDir())

	good := testArtifact(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), 1)
	good.Metrics = model.Metrics{MSE: 1.0, R2: 0.99}
	_, err := r.Register(good)
	require.NoError(t, err)

	worse := testArtifact(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), 2)
	worse.Metrics = model.Metrics{MSE: 500.0, R2: 0.01}
	_, err = r.Register(worse)
	require.NoError(t, err)

	latest, err := r.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, 2.0, latest.Bias)
}

func TestRegistry_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	_, err := r.Register(testArtifact(time.Now().UTC(), 75))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp file %q survived registration", e.Name())
	}
}

func TestRegistry_LoadVersion_Missing(t *testing.T) {
	r := New(t.TempDir())

	_, err := r.LoadVersion("aqi_regressor_19700101000000_mse0.00_r20.00.json.gz")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeModelNotRegistered, appErr.Code)
}
