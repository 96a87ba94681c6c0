package ml

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"falcon-dash/internal/common"
	"falcon-dash/internal/features"

	"github.com/rs/zerolog/log"
)

// ErrArtifactLoad reports a missing or corrupt model, scaler or training
// schema file.
var ErrArtifactLoad = errors.New("artifact load failed")

// ArtifactPaths locates the trained artifacts on disk.
type ArtifactPaths struct {
	ModelPath        string
	ScalerPath       string
	TrainingDataPath string // optional cross-check of the scaler columns
	ONNXLibraryPath  string
}

// Artifacts is an immutable loaded model/scaler pair.
type Artifacts struct {
	Model        Model
	Scaler       *Scaler
	ModelPath    string
	ScalerPath   string
	ModelModTime time.Time
	LoadedAt     time.Time
}

// LoadArtifacts reads and cross-validates the scaler and model. Every
// failure wraps ErrArtifactLoad; schema disagreements also wrap
// features.ErrSchemaMismatch.
func LoadArtifacts(paths ArtifactPaths) (*Artifacts, error) {
	scaler, err := LoadScaler(paths.ScalerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler %s: %w", ErrArtifactLoad, paths.ScalerPath, err)
	}

	if paths.TrainingDataPath != "" {
		if err := checkTrainingColumns(paths.TrainingDataPath, scaler.Schema()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArtifactLoad, err)
		}
	}

	var modTime time.Time
	if info, err := os.Stat(paths.ModelPath); err == nil {
		modTime = info.ModTime()
	}

	model, err := LoadModel(paths.ModelPath, paths.ONNXLibraryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %w", ErrArtifactLoad, paths.ModelPath, err)
	}

	if n := model.NumFeatures(); n >= 0 && n != scaler.Schema().Len() {
		model.Close()
		return nil, fmt.Errorf("%w: %w: model expects %d features, scaler has %d columns",
			ErrArtifactLoad, features.ErrSchemaMismatch, n, scaler.Schema().Len())
	}

	return &Artifacts{
		Model:        model,
		Scaler:       scaler,
		ModelPath:    paths.ModelPath,
		ScalerPath:   paths.ScalerPath,
		ModelModTime: modTime,
		LoadedAt:     time.Now(),
	}, nil
}

// checkTrainingColumns compares the scaler schema with the header of the
// processed training CSV.
func checkTrainingColumns(path string, schema *features.Schema) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()

	columns, err := features.ColumnsFromCSV(f, common.TargetColumn)
	if err != nil {
		return err
	}
	if !schema.Equal(columns) {
		return fmt.Errorf("%w: training data has %d feature columns, scaler has %d in a different layout",
			features.ErrSchemaMismatch, len(columns), schema.Len())
	}
	return nil
}

// Loader lazily loads artifacts on first use and caches them for the
// process lifetime. A failed load is not cached; the next call retries.
type Loader struct {
	paths     ArtifactPaths
	metrics   MetricsInterface
	load      func(ArtifactPaths) (*Artifacts, error)
	mu        sync.Mutex
	artifacts *Artifacts
}

// NewLoader creates a loader for paths. metrics may be nil.
func NewLoader(paths ArtifactPaths, metrics MetricsInterface) *Loader {
	return &Loader{
		paths:   paths,
		metrics: metrics,
		load:    LoadArtifacts,
	}
}

// Get returns the cached artifacts, loading them if necessary.
func (l *Loader) Get() (*Artifacts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.artifacts != nil {
		return l.artifacts, nil
	}

	a, err := l.load(l.paths)
	if err != nil {
		log.Error().
			Err(err).
			Str("model_path", l.paths.ModelPath).
			Str("scaler_path", l.paths.ScalerPath).
			Msg("Failed to load prediction artifacts")
		if l.metrics != nil {
			l.metrics.ArtifactLoadErrorsInc()
		}
		return nil, err
	}

	l.artifacts = a
	if l.metrics != nil && !a.ModelModTime.IsZero() {
		l.metrics.ModelAgeSet(time.Since(a.ModelModTime).Seconds())
	}
	log.Info().
		Str("model_path", a.ModelPath).
		Str("model_version", a.Model.Version()).
		Str("scaler_kind", a.Scaler.Kind()).
		Int("features", a.Scaler.Schema().Len()).
		Msg("Prediction artifacts loaded")

	return a, nil
}

// Loaded reports whether artifacts are cached.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.artifacts != nil
}

// Close releases model resources.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.artifacts == nil {
		return nil
	}
	err := l.artifacts.Model.Close()
	l.artifacts = nil
	return err
}
