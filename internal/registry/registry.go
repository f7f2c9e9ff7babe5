// Package registry persists trained model artifacts on the filesystem. Each
// registration writes one immutable, uniquely-named historical blob (kept
// forever for audit) and atomically repoints the well-known "latest" alias
// at it. Readers always observe either the previous alias target or the new
// one, never a partially-written file.
package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"aqipipe/internal/model"
	"aqipipe/internal/types"
)

// latestName is the well-known alias file name, overwritten on each
// registration.
const latestName = "latest.json.gz"

// versionTimeLayout is the timestamp component of a versioned blob name.
const versionTimeLayout = "20060102150405"

// Registry is a filesystem-backed model registry rooted at a directory.
// There is no process-wide cached model: every LoadLatest returns a fresh
// immutable handle, so staleness is always explicit at the call site.
type Registry struct {
	dir string
}

// New creates a registry rooted at dir. The directory is created on first
// registration, not here, so a read-only consumer can point at a path that
// does not exist yet and get a clean "no model" error.
func New(dir string) *Registry {
	return &Registry{dir: dir}
}

// Register persists the artifact and updates the latest alias. It returns
// the versioned blob name, which encodes the training timestamp and the
// evaluation metrics.
func (r *Registry) Register(a *model.Artifact) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", types.NewAppError(types.ErrCodeRegistryIO, "failed to create model registry directory", err)
	}

	version := fmt.Sprintf("aqi_regressor_%s_mse%.2f_r2%.2f.json.gz",
		a.TrainedAt.UTC().Format(versionTimeLayout), a.Metrics.MSE, a.Metrics.R2)

	if err := r.writeBlob(version, a); err != nil {
		return "", err
	}
	if err := r.writeBlob(latestName, a); err != nil {
		return "", err
	}
	return version, nil
}

// writeBlob writes the artifact under name via a temp file and rename, so a
// concurrent reader never sees a partial blob.
func (r *Registry) writeBlob(name string, a *model.Artifact) error {
	tmp, err := os.CreateTemp(r.dir, "."+name+".tmp-*")
	if err != nil {
		return types.NewAppError(types.ErrCodeRegistryIO, "failed to create temporary artifact file", err)
	}
	tmpName := tmp.Name()

	if err := a.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeRegistryIO, "failed to write artifact", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeRegistryIO, "failed to flush artifact", err)
	}

	if err := os.Rename(tmpName, filepath.Join(r.dir, name)); err != nil {
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeRegistryIO, "failed to publish artifact", err)
	}
	return nil
}

// LoadLatest returns the artifact the latest alias points at. It fails with
// a model_not_registered AppError when no model has ever been registered.
func (r *Registry) LoadLatest() (*model.Artifact, error) {
	f, err := os.Open(filepath.Join(r.dir, latestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrCodeModelNotRegistered, "no model has been registered", err)
		}
		return nil, types.NewAppError(types.ErrCodeRegistryIO, "failed to open latest model", err)
	}
	defer f.Close()

	a, err := model.Decode(f)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeRegistryIO, "failed to decode latest model", err)
	}
	return a, nil
}

// LoadVersion returns a specific historical artifact by its versioned name.
func (r *Registry) LoadVersion(version string) (*model.Artifact, error) {
	f, err := os.Open(filepath.Join(r.dir, filepath.Base(version)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrCodeModelNotRegistered, fmt.Sprintf("model version %q not found", version), err)
		}
		return nil, types.NewAppError(types.ErrCodeRegistryIO, "failed to open model version", err)
	}
	defer f.Close()

	a, err := model.Decode(f)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeRegistryIO, "failed to decode model version", err)
	}
	return a, nil
}
