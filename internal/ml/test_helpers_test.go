package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu             sync.Mutex
	predictions    map[string]int
	failures       map[string]int
	latencies      int
	scores         []float64
	unrecognized   map[string]int
	artifactErrors int
	modelAge       float64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		predictions:  make(map[string]int),
		failures:     make(map[string]int),
		unrecognized: make(map[string]int),
	}
}

func (m *MockMetrics) PredictionsInc(class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[class]++
}

func (m *MockMetrics) PredictionFailuresInc(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[reason]++
}

func (m *MockMetrics) PredictionLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *MockMetrics) PredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, v)
}

func (m *MockMetrics) UnrecognizedCategoryInc(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unrecognized[field]++
}

func (m *MockMetrics) ArtifactLoadErrorsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifactErrors++
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

var testColumns = []string{
	"FlightNumber", "PayloadMass", "Flights", "GridFins", "Reused", "Legs",
	"Orbit_LEO", "Orbit_GTO",
	"LaunchSiteName_KSC LC 39A (Florida)", "LaunchSiteName_CCSFS SLC 40 (Florida)",
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// writeArtifacts writes a standard scaler and a logistic model whose
// decision function only looks at the scaled GridFins and Legs columns.
func writeArtifacts(t *testing.T) ArtifactPaths {
	t.Helper()
	dir := t.TempDir()

	mean := make([]float64, len(testColumns))
	scale := make([]float64, len(testColumns))
	for i := range scale {
		scale[i] = 1
	}
	mean[1], scale[1] = 5000, 2500

	coef := make([]float64, len(testColumns))
	coef[3], coef[5] = 2, 2

	return ArtifactPaths{
		ScalerPath: writeJSON(t, dir, "scaler.json", map[string]any{
			"kind":             "standard",
			"feature_names_in": testColumns,
			"mean":             mean,
			"scale":            scale,
		}),
		ModelPath: writeJSON(t, dir, "model.json", map[string]any{
			"type":         "logistic_regression",
			"version":      "test-1",
			"coefficients": coef,
			"intercept":    -2,
		}),
	}
}
