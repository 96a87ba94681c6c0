package ml

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"falcon-dash/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLaunch() features.RawLaunch {
	return features.RawLaunch{
		FlightNumber:   50,
		PayloadMass:    5000,
		Flights:        1,
		Orbit:          "LEO",
		LaunchSiteName: "KSC LC 39A (Florida)",
		GridFins:       true,
		Reused:         false,
		Legs:           true,
	}
}

func newTestPredictor(t *testing.T) (*Predictor, *MockMetrics) {
	t.Helper()
	metrics := NewMockMetrics()
	loader := NewLoader(writeArtifacts(t), metrics)
	t.Cleanup(func() { loader.Close() })
	return NewPredictor(loader, metrics), metrics
}

func TestPredictor_Success(t *testing.T) {
	p, metrics := newTestPredictor(t)

	res, err := p.Predict(context.Background(), testLaunch())
	require.NoError(t, err)

	assert.Equal(t, ClassSuccess, res.Class)
	assert.InDelta(t, 1/(1+math.Exp(-2)), res.Probability, 1e-9)
	assert.Equal(t, "88.08%", res.Percent)
	assert.Equal(t, "test-1", res.ModelVersion)
	assert.NotEmpty(t, res.RequestID)
	assert.Empty(t, res.Unrecognized)
	assert.False(t, res.Timestamp.IsZero())

	assert.Equal(t, 1, metrics.predictions[string(ClassSuccess)])
	assert.Len(t, metrics.scores, 1)
	assert.Equal(t, 1, metrics.latencies)
}

func TestPredictor_Failure(t *testing.T) {
	p, metrics := newTestPredictor(t)

	raw := testLaunch()
	raw.GridFins, raw.Legs = false, false

	res, err := p.Predict(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ClassFailure, res.Class)
	assert.Less(t, res.Probability, 0.5)
	assert.Equal(t, 1, metrics.predictions[string(ClassFailure)])
}

func TestPredictor_DecisionBoundaryIsFailure(t *testing.T) {
	p, _ := newTestPredictor(t)

	raw := testLaunch()
	raw.Legs = false

	res, err := p.Predict(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ClassFailure, res.Class)
	assert.Equal(t, 0.5, res.Probability)
	assert.Equal(t, "50.00%", res.Percent)
}

func TestPredictor_PayloadDoesNotMoveScore(t *testing.T) {
	p, _ := newTestPredictor(t)

	light := testLaunch()
	light.PayloadMass = 0
	heavy := testLaunch()
	heavy.PayloadMass = 15000

	a, err := p.Predict(context.Background(), light)
	require.NoError(t, err)
	b, err := p.Predict(context.Background(), heavy)
	require.NoError(t, err)
	assert.Equal(t, a.Probability, b.Probability)
}

func TestPredictor_UnrecognizedCategory(t *testing.T) {
	p, metrics := newTestPredictor(t)

	raw := testLaunch()
	raw.Orbit = "XYZ"

	res, err := p.Predict(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, res.Unrecognized, 1)
	assert.Equal(t, features.UnrecognizedCategory{Field: "Orbit", Value: "XYZ"}, res.Unrecognized[0])
	assert.Equal(t, 1, metrics.unrecognized["Orbit"])
	assert.Zero(t, metrics.unrecognized["LaunchSiteName"])
}

func TestPredictor_InvalidInput(t *testing.T) {
	p, metrics := newTestPredictor(t)

	tests := []struct {
		name   string
		mutate func(*features.RawLaunch)
	}{
		{"zero flight number", func(r *features.RawLaunch) { r.FlightNumber = 0 }},
		{"negative payload", func(r *features.RawLaunch) { r.PayloadMass = -1 }},
		{"negative flights", func(r *features.RawLaunch) { r.Flights = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testLaunch()
			tt.mutate(&raw)

			res, err := p.Predict(context.Background(), raw)
			assert.True(t, errors.Is(err, features.ErrInvalidInput), "%v", err)
			assert.Equal(t, PredictionResult{}, res)
		})
	}
	assert.Equal(t, len(tests), metrics.failures[reasonInvalidInput])
	assert.Empty(t, metrics.predictions)
}

func TestPredictor_CanceledContext(t *testing.T) {
	p, metrics := newTestPredictor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, testLaunch())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, metrics.failures[reasonCanceled])
}

func TestPredictor_MissingArtifacts(t *testing.T) {
	metrics := NewMockMetrics()
	dir := t.TempDir()
	loader := NewLoader(ArtifactPaths{
		ModelPath:  filepath.Join(dir, "missing.json"),
		ScalerPath: filepath.Join(dir, "missing-scaler.json"),
	}, metrics)
	p := NewPredictor(loader, metrics)

	assert.True(t, errors.Is(p.Ready(), ErrArtifactLoad))

	res, err := p.Predict(context.Background(), testLaunch())
	assert.True(t, errors.Is(err, ErrArtifactLoad), "%v", err)
	assert.Equal(t, PredictionResult{}, res)
	assert.Equal(t, 1, metrics.failures[reasonArtifactLoad])
	assert.Equal(t, 2, metrics.artifactErrors)
}

type stubModel struct {
	label int
	proba float64
	err   error
}

func (m stubModel) Predict([]float64) (int, float64, error) { return m.label, m.proba, m.err }
func (m stubModel) NumFeatures() int                        { return -1 }
func (m stubModel) Version() string                         { return "stub" }
func (m stubModel) Close() error                            { return nil }

func TestPredictor_ModelErrors(t *testing.T) {
	schema, err := features.NewSchema(testColumns, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		model stubModel
	}{
		{"inference error", stubModel{err: errors.New("boom")}},
		{"probability above one", stubModel{label: 1, proba: 1.5}},
		{"nan probability", stubModel{proba: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMockMetrics()
			loader := NewLoader(ArtifactPaths{}, metrics)
			loader.load = func(ArtifactPaths) (*Artifacts, error) {
				return &Artifacts{Model: tt.model, Scaler: NewScaler("standard", schema)}, nil
			}

			res, err := NewPredictor(loader, metrics).Predict(context.Background(), testLaunch())
			assert.Error(t, err)
			assert.Equal(t, PredictionResult{}, res)
			assert.Equal(t, 1, metrics.failures[reasonModel])
		})
	}
}

func TestPredictor_NilMetrics(t *testing.T) {
	loader := NewLoader(writeArtifacts(t), nil)
	p := NewPredictor(loader, nil)

	_, err := p.Predict(context.Background(), testLaunch())
	assert.NoError(t, err)

	raw := testLaunch()
	raw.FlightNumber = 0
	_, err = p.Predict(context.Background(), raw)
	assert.Error(t, err)
}
